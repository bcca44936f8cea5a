// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package msgtype resolves the structural type of a raw message and
// extracts its type-specific structured payload.
//
// Handlers are registered in order; dispatch walks them and the first
// handler whose CanHandle returns true wins. A fallback that matches
// everything sits behind the registered handlers, so dispatch is
// total. Extraction is also total: a handler never fails on malformed
// content, it returns whatever partial payload it could recover.
package msgtype

import "github.com/poiesic/chatvault/core"

// Handler extracts type-specific structured fields from raw messages.
type Handler interface {
	// Type is the message type this handler assigns.
	Type() core.MessageType

	// CanHandle reports whether this handler claims the raw type tag.
	CanHandle(rawType string) bool

	// Extract returns the structured payload for a raw message. It must
	// be total: malformed or empty content yields an empty payload,
	// never an error. Partial metadata is acceptable; halting is not.
	Extract(msg *core.RawMessage) map[string]any
}

// Registry dispatches raw messages to type handlers in registration
// order, with an always-matching fallback behind them.
type Registry struct {
	handlers []Handler
	fallback Handler
}

// NewRegistry creates a registry with the built-in handlers registered
// in their canonical order.
func NewRegistry() *Registry {
	return &Registry{
		handlers: []Handler{
			&RichTextHandler{},
			&MediaHandler{},
			&PollHandler{},
			&EventHandler{},
			&ContactHandler{},
		},
		fallback: &FallbackHandler{},
	}
}

// Register appends a handler behind the built-in ones. The fallback
// always stays last; dispatch logic never changes when types are added.
func (r *Registry) Register(h Handler) {
	r.handlers = append(r.handlers, h)
}

// Handlers returns the registered handlers, fallback excluded.
func (r *Registry) Handlers() []Handler {
	return r.handlers
}

// Dispatch resolves the message type and extracts the structured
// payload. When the raw record's explicit type tag is absent or
// generic, the normalizer's hint takes its place.
func (r *Registry) Dispatch(msg *core.RawMessage, hint core.MessageType) (core.MessageType, map[string]any) {
	rawType := msg.Type
	if isGenericType(rawType) {
		rawType = string(hint)
	}

	for _, h := range r.handlers {
		if h.CanHandle(rawType) {
			return h.Type(), h.Extract(msg)
		}
	}
	return r.fallback.Type(), r.fallback.Extract(msg)
}

// isGenericType reports whether a raw type tag carries no information.
func isGenericType(rawType string) bool {
	switch rawType {
	case "", "message", "generic":
		return true
	}
	return false
}
