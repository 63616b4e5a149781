// Package api binds the tile HTTP interface described in api/openapi.yaml
// to a chi router.
//
// It follows the layout oapi-codegen produces for chi servers, so handlers
// implement ServerInterface and receive path parameters already extracted.
// The route is registered by hand because the ".png" suffix shares a path
// segment with the y parameter, which chi cannot split on its own when y
// itself contains a dot.
package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// TileSuffix is the literal extension carried by the y path segment
const TileSuffix = ".png"

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// Render one heatmap tile
	// (GET /heatmap/{z}/{x}/{y}.png)
	GetHeatmapTile(w http.ResponseWriter, r *http.Request, z string, x string, y string)
}

// MiddlewareFunc wraps the handler of a single operation
type MiddlewareFunc func(http.Handler) http.Handler

// ServerInterfaceWrapper converts chi contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler            ServerInterface
	HandlerMiddlewares []MiddlewareFunc
	ErrorHandlerFunc   func(w http.ResponseWriter, r *http.Request, err error)
	NotFoundHandler    http.Handler
}

// GetHeatmapTile operation middleware
func (siw *ServerInterfaceWrapper) GetHeatmapTile(w http.ResponseWriter, r *http.Request) {
	var err error

	// A last segment without the suffix is not a tile request
	rawY, ok := strings.CutSuffix(chi.URLParam(r, "y"), TileSuffix)
	if !ok {
		siw.NotFoundHandler.ServeHTTP(w, r)
		return
	}

	// ------------- Path parameter "z" -------------
	var z string

	err = runtime.BindStyledParameterWithOptions("simple", "z", chi.URLParam(r, "z"), &z, runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "z", Err: err})
		return
	}

	// ------------- Path parameter "x" -------------
	var x string

	err = runtime.BindStyledParameterWithOptions("simple", "x", chi.URLParam(r, "x"), &x, runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "x", Err: err})
		return
	}

	// ------------- Path parameter "y" -------------
	var y string

	err = runtime.BindStyledParameterWithOptions("simple", "y", rawY, &y, runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "y", Err: err})
		return
	}

	handler := http.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.GetHeatmapTile(w, r, z, x, y)
	}))

	for _, middleware := range siw.HandlerMiddlewares {
		handler = middleware(handler)
	}

	handler.ServeHTTP(w, r)
}

// InvalidParamFormatError is passed to ErrorHandlerFunc when a path parameter cannot be bound
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error {
	return e.Err
}

// ChiServerOptions configures HandlerWithOptions
type ChiServerOptions struct {
	BaseURL          string
	BaseRouter       chi.Router
	Middlewares      []MiddlewareFunc
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)

	// NotFoundHandler receives requests that match the route shape but lack the
	// ".png" suffix. Defaults to http.NotFound.
	NotFoundHandler http.Handler
}

// Handler creates http.Handler with routing matching OpenAPI spec.
func Handler(si ServerInterface) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{})
}

// HandlerWithOptions creates http.Handler with additional options
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter

	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}
	if options.NotFoundHandler == nil {
		options.NotFoundHandler = http.HandlerFunc(http.NotFound)
	}
	wrapper := ServerInterfaceWrapper{
		Handler:            si,
		HandlerMiddlewares: options.Middlewares,
		ErrorHandlerFunc:   options.ErrorHandlerFunc,
		NotFoundHandler:    options.NotFoundHandler,
	}

	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/heatmap/{z}/{x}/{y}", wrapper.GetHeatmapTile)
	})

	return r
}
