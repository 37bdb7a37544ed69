package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/amimof/huego"
	"github.com/sirupsen/logrus"

	"liquid-home-console/internal/domain/model"
	"liquid-home-console/internal/domain/service"
	"liquid-home-console/internal/domain/translator"
	"liquid-home-console/internal/ports"
)

var log = logrus.WithField("prefix", "http")

// SourceHue labels actions requested through the Hue-style light API.
const SourceHue = "hue-api"

// room devices exposed as Hue lights, by light id
var roomLights = map[string]struct {
	flag model.Flag
	name string
}{
	"1": {model.FlagLights, "Room lights"},
	"2": {model.FlagCurtains, "Curtain blinds"},
}

type Server struct {
	console           ports.ConsolePort
	translatorFactory *translator.Factory
	srv               *http.Server
}

func NewServer(console ports.ConsolePort) *Server {
	return &Server{
		console:           console,
		translatorFactory: translator.NewFactory(),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleAdmin)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /actions", s.handleActions)
	mux.HandleFunc("POST /actions/{id}", s.handleExecute(service.SourceManual))
	mux.HandleFunc("POST /test/{id}", s.handleExecute(service.SourceTestButton))
	mux.HandleFunc("GET /rules", s.handleRules)
	mux.HandleFunc("POST /rules", s.handleAddRule)
	mux.HandleFunc("DELETE /rules/{id}", s.handleDeleteRule)
	mux.HandleFunc("POST /rules/{id}/run", s.handleRunRule)
	mux.HandleFunc("POST /stream/start", s.handleStreamStart)
	mux.HandleFunc("POST /stream/stop", s.handleStreamStop)

	mux.HandleFunc("POST /api", s.handleRegister)
	mux.HandleFunc("GET /api/{user}/lights", s.handleGetLights)
	mux.HandleFunc("GET /api/{user}/lights/{id}", s.handleGetLight)
	mux.HandleFunc("PUT /api/{user}/lights/{id}/state", s.handleSetLightState)
	return mux
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.srv = &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.ListenAndServe() }()
	log.Infof("control surface listening on %s", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.console.Status())
}

func (s *Server) handleActions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.console.Actions())
}

func (s *Server) handleExecute(source string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out := s.console.Execute(r.PathValue("id"), source)
		writeJSON(w, http.StatusOK, out)
	}
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.console.Rules())
}

type addRuleRequest struct {
	ConditionText string `json:"condition_text"`
	ActionID      string `json:"action_id"`
}

func (s *Server) handleAddRule(w http.ResponseWriter, r *http.Request) {
	var req addRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	rule, err := s.console.AddRule(r.Context(), req.ConditionText, req.ActionID)
	if err != nil {
		writeError(w, ruleErrorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, rule)
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	if err := s.console.DeleteRule(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, ruleErrorStatus(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRunRule(w http.ResponseWriter, r *http.Request) {
	out, err := s.console.RunRule(r.PathValue("id"))
	if err != nil {
		writeError(w, ruleErrorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStreamStart(w http.ResponseWriter, r *http.Request) {
	if err := s.console.StartStream(r.Context()); err != nil {
		writeJSON(w, http.StatusBadGateway, s.console.Status())
		return
	}
	writeJSON(w, http.StatusOK, s.console.Status())
}

func (s *Server) handleStreamStop(w http.ResponseWriter, r *http.Request) {
	s.console.StopStream()
	writeJSON(w, http.StatusOK, s.console.Status())
}

func ruleErrorStatus(err error) int {
	var perr *service.PersistenceError
	switch {
	case errors.Is(err, service.ErrEmptyCondition), errors.Is(err, service.ErrMissingAction):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrCapacityExceeded):
		return http.StatusConflict
	case errors.Is(err, ports.ErrRuleNotFound):
		return http.StatusNotFound
	case errors.As(err, &perr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `[{"success":{"username": "console"}}]`)
}

func (s *Server) light(id string, state model.DeviceState) (*huego.Light, bool) {
	dev, ok := roomLights[id]
	if !ok {
		return nil, false
	}
	strategy := s.translatorFactory.GetTranslator(dev.flag)
	meta := strategy.GetMetadata()
	return &huego.Light{
		Name:             dev.name,
		Type:             meta.Type,
		State:            strategy.ToHue(state.Get(dev.flag)),
		ModelID:          meta.ModelID,
		UniqueID:         "liquid-home-" + id,
		ManufacturerName: meta.ManufacturerName,
	}, true
}

func (s *Server) handleGetLights(w http.ResponseWriter, r *http.Request) {
	state := s.console.Status().State
	lights := make(map[string]*huego.Light, len(roomLights))
	for id := range roomLights {
		lights[id], _ = s.light(id, state)
	}
	writeJSON(w, http.StatusOK, lights)
}

func (s *Server) handleGetLight(w http.ResponseWriter, r *http.Request) {
	l, ok := s.light(r.PathValue("id"), s.console.Status().State)
	if !ok {
		http.Error(w, "light not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// lightStateRequest holds the Hue state fields the room devices understand.
// Absent fields stay nil.
type lightStateRequest struct {
	On  *bool  `json:"on"`
	Bri *uint8 `json:"bri"`
}

// hueState fills the fields missing from req: "on" follows bri when only a
// brightness is given.
func (req lightStateRequest) hueState() *huego.State {
	state := &huego.State{}
	if req.Bri != nil {
		state.Bri = *req.Bri
		state.On = *req.Bri > 0
	}
	if req.On != nil {
		state.On = *req.On
	}
	return state
}

// handleSetLightState turns a Hue state change into the matching room action.
func (s *Server) handleSetLightState(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	dev, ok := roomLights[id]
	if !ok {
		http.Error(w, "light not found", http.StatusNotFound)
		return
	}

	var req lightStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.On == nil && req.Bri == nil {
		http.Error(w, "state needs on or bri", http.StatusBadRequest)
		return
	}

	value := s.translatorFactory.GetTranslator(dev.flag).FromHue(req.hueState())
	out := s.console.Execute(model.ActionFor(dev.flag, value), SourceHue)
	log.WithField("light", id).Debug(out.Message)

	resp := []map[string]interface{}{}
	if req.On != nil {
		resp = append(resp, map[string]interface{}{
			"success": map[string]interface{}{fmt.Sprintf("/lights/%s/state/on", id): *req.On},
		})
	}
	if req.Bri != nil {
		resp = append(resp, map[string]interface{}{
			"success": map[string]interface{}{fmt.Sprintf("/lights/%s/state/bri", id): *req.Bri},
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Debug("writing response")
	}
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"message": message})
}

// lightIDs returns the exposed light ids in order.
func lightIDs() []string {
	ids := make([]string, 0, len(roomLights))
	for id := range roomLights {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	var b strings.Builder
	for _, id := range lightIDs() {
		fmt.Fprintf(&b, "<li>%s: <code>/api/&lt;user&gt;/lights/%s</code></li>", roomLights[id].name, id)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, adminPage, b.String())
}

const adminPage = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Liquid Home Console</title>
    <style>
        body { font-family: sans-serif; max-width: 900px; margin: 40px auto; padding: 20px; line-height: 1.6; background-color: #f4f4f9; }
        button { padding: 8px 12px; background: #007bff; color: white; border: none; cursor: pointer; border-radius: 4px; margin: 2px; }
        button.delete { background: #dc3545; }
        pre { background: white; border: 1px solid #ccc; padding: 10px; border-radius: 4px; max-height: 300px; overflow-y: auto; }
        input, select { padding: 6px; }
    </style>
</head>
<body>
    <h1>Liquid Home Console</h1>
    <p id="status">loading...</p>
    <div id="actions"></div>
    <h2>Rules</h2>
    <ul id="rules"></ul>
    <form id="add">IF <input id="cond" placeholder="condition"> THEN <select id="act"></select> <button>Add</button></form>
    <h2>Live stream</h2>
    <button id="start">Start</button> <button id="stop" class="delete">Stop</button>
    <pre id="log"></pre>
    <h2>Hue lights</h2>
    <ul>%s</ul>
    <script>
        async function post(url, body, method) {
            const res = await fetch(url, {method: method || 'POST', headers: {'Content-Type': 'application/json'}, body: body ? JSON.stringify(body) : undefined});
            if (!res.ok) { const e = await res.json().catch(() => ({})); alert(e.message || res.status); }
            refresh();
        }
        async function refresh() {
            const st = await (await fetch('/status')).json();
            document.getElementById('status').textContent =
                'lights ' + (st.state.lights_on ? 'ON' : 'OFF') + ', curtains ' + (st.state.curtains_open ? 'OPEN' : 'CLOSED') +
                ' | stream: ' + st.stream_message + (st.last_outcome ? ' | ' + st.last_outcome.message : '');
            document.getElementById('log').textContent = (st.log || []).map(e => e.text).join('\n');
            const actions = await (await fetch('/actions')).json();
            document.getElementById('actions').replaceChildren(...actions.map(a =>
                button(a.label, '', () => post('/actions/' + encodeURIComponent(a.id)))));
            document.getElementById('act').replaceChildren(...actions.map(a => {
                const o = document.createElement('option');
                o.value = a.id;
                o.textContent = a.label;
                return o;
            }));
            const rules = await (await fetch('/rules')).json();
            document.getElementById('rules').replaceChildren(...rules.map(r => {
                const li = document.createElement('li');
                const id = encodeURIComponent(r.id);
                li.append('IF ' + r.condition_text + ' THEN ' + r.action_id + ' ',
                    button('Run', '', () => post('/rules/' + id + '/run')), ' ',
                    button('Delete', 'delete', () => post('/rules/' + id, null, 'DELETE')));
                return li;
            }));
        }
        function button(label, cls, onClick) {
            const b = document.createElement('button');
            b.textContent = label;
            if (cls) b.className = cls;
            b.addEventListener('click', onClick);
            return b;
        }
        document.getElementById('start').addEventListener('click', () => post('/stream/start'));
        document.getElementById('stop').addEventListener('click', () => post('/stream/stop'));
        document.getElementById('add').onsubmit = e => {
            e.preventDefault();
            post('/rules', {condition_text: document.getElementById('cond').value, action_id: document.getElementById('act').value});
        };
        refresh();
        setInterval(refresh, 1000);
    </script>
</body>
</html>`
