// Package handler composes the domain-specific HTTP handlers.
package handler

import (
	"log/slog"
	"time"

	"github.com/mandalnilabja/pixelrelay/internal/provider"
	"github.com/mandalnilabja/pixelrelay/internal/relay"
	"github.com/mandalnilabja/pixelrelay/internal/storage"
	"github.com/mandalnilabja/pixelrelay/internal/transport/http/handler/admin"
	"github.com/mandalnilabja/pixelrelay/internal/transport/http/handler/generation"
	"github.com/mandalnilabja/pixelrelay/internal/transport/http/handler/imageproxy"
	"github.com/mandalnilabja/pixelrelay/internal/transport/http/handler/infra"
	"github.com/mandalnilabja/pixelrelay/internal/transport/http/handler/webui"
	"github.com/mandalnilabja/pixelrelay/internal/types"
)

// Deps are the collaborators shared by the handlers.
type Deps struct {
	Generator  provider.Generator
	Relay      relay.Relayer // nil disables relaying
	Store      *storage.Store
	ImageProxy *imageproxy.Handlers
	Defaults   types.Defaults
	Settings   admin.Settings
	Port       string
	Logger     *slog.Logger
}

// Repo composes all domain-specific handlers.
type Repo struct {
	Generation *generation.Handlers
	ImageProxy *imageproxy.Handlers
	Admin      *admin.Handlers
	Infra      *infra.Handlers
	WebUI      *webui.Handlers
}

// NewRepo creates a new instance of the composed handler repository.
func NewRepo(deps Deps) *Repo {
	startTime := time.Now()

	adminHandlers := admin.New(deps.Store, deps.Settings, startTime)
	if deps.ImageProxy != nil {
		adminHandlers.CacheStats = deps.ImageProxy.CacheStats
	}

	return &Repo{
		Generation: generation.New(deps.Generator, deps.Relay, deps.Store, deps.Defaults, deps.Logger),
		ImageProxy: deps.ImageProxy,
		Admin:      adminHandlers,
		Infra:      infra.New(deps.Port, startTime),
		WebUI:      webui.New(nil),
	}
}
