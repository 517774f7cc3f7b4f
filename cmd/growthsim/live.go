package main

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/growthrates/internal/config"
	"github.com/san-kum/growthrates/internal/experiment"
	"github.com/san-kum/growthrates/internal/growth"
	"github.com/san-kum/growthrates/internal/viz"
)

func runLive(cfg *config.Config) error {
	registry := experiment.NewRegistry()

	m, err := registry.GetModel(cfg.Model)
	if err != nil {
		return err
	}
	params, err := experiment.ParamVector(m, cfg.Params)
	if err != nil {
		return err
	}
	if err := growth.Init(m, params); err != nil {
		return err
	}

	integ, err := registry.GetIntegrator(cfg.Integrator)
	if err != nil {
		return err
	}

	nout := m.NumOutputs()
	if cfg.Outputs != nil {
		nout = *cfg.Outputs
	}

	view := viz.NewModel(m, experiment.NewVectorfield(m, nout), integ, cfg.InitState, cfg.Dt, cfg.Duration)
	_, err = tea.NewProgram(view, tea.WithAltScreen()).Run()
	return err
}
