package translator

import (
	"liquid-home-console/internal/domain/model"
)

type Factory struct {
	strategies map[model.Flag]Translator
}

func NewFactory() *Factory {
	return &Factory{
		strategies: map[model.Flag]Translator{
			model.FlagLights:   &LightStrategy{},
			model.FlagCurtains: &CoverStrategy{},
		},
	}
}

func (f *Factory) GetTranslator(flag model.Flag) Translator {
	if t, ok := f.strategies[flag]; ok {
		return t
	}
	return f.strategies[model.FlagLights]
}
