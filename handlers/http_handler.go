// Package handlers provides HTTP request handlers for the pediatric dosing
// API endpoints. This file implements the HTTPHandler interface with
// dependency injection.
package handlers

import (
	"net/http"

	"github.com/pediago/pediago-api/interfaces"
)

// Compile-time check to ensure HTTPHandlerImpl implements HTTPHandler
var _ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface by
// binding the closure handlers to injected dependencies once at
// construction.
type HTTPHandlerImpl struct {
	listProtocols      http.HandlerFunc
	findProtocol       http.HandlerFunc
	serveProtocolDoses http.HandlerFunc
	listDrugs          http.HandlerFunc
	findDrug           http.HandlerFunc
	resolveDose        http.HandlerFunc
	servePosology      http.HandlerFunc
	deriveVolume       http.HandlerFunc
	healthCheck        http.HandlerFunc
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(dataStore interfaces.DataStore, validator interfaces.DataValidator) interfaces.HTTPHandler {
	return &HTTPHandlerImpl{
		listProtocols:      ListProtocols(dataStore),
		findProtocol:       FindProtocol(dataStore),
		serveProtocolDoses: ServeProtocolDoses(dataStore, validator),
		listDrugs:          ListDrugs(dataStore),
		findDrug:           FindDrug(dataStore, validator),
		resolveDose:        ResolveDose(dataStore, validator),
		servePosology:      ServePosology(dataStore, validator),
		deriveVolume:       DeriveVolume(dataStore),
		healthCheck:        HealthCheck(dataStore),
	}
}

// ServeHTTP implements the http.Handler interface
func (h *HTTPHandlerImpl) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Actual routing is handled by chi
	http.Error(w, "Not implemented", http.StatusNotImplemented)
}

func (h *HTTPHandlerImpl) ListProtocols(w http.ResponseWriter, r *http.Request) {
	h.listProtocols(w, r)
}

func (h *HTTPHandlerImpl) FindProtocol(w http.ResponseWriter, r *http.Request) {
	h.findProtocol(w, r)
}

func (h *HTTPHandlerImpl) ServeProtocolDoses(w http.ResponseWriter, r *http.Request) {
	h.serveProtocolDoses(w, r)
}

func (h *HTTPHandlerImpl) ListDrugs(w http.ResponseWriter, r *http.Request) {
	h.listDrugs(w, r)
}

func (h *HTTPHandlerImpl) FindDrug(w http.ResponseWriter, r *http.Request) {
	h.findDrug(w, r)
}

func (h *HTTPHandlerImpl) ResolveDose(w http.ResponseWriter, r *http.Request) {
	h.resolveDose(w, r)
}

func (h *HTTPHandlerImpl) ServePosology(w http.ResponseWriter, r *http.Request) {
	h.servePosology(w, r)
}

func (h *HTTPHandlerImpl) DeriveVolume(w http.ResponseWriter, r *http.Request) {
	h.deriveVolume(w, r)
}

func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.healthCheck(w, r)
}
