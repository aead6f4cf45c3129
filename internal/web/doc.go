// Package web serves the browser UI and the JSON API on a gin engine.
//
// The HTML routes mirror a single-page form: GET / renders the form with the
// user's saved preferences and recent history, POST /translate renders the
// results. The /api routes expose the same operations as JSON.
package web
