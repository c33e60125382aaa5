// Package presenter delivers the distance signal to display collaborators.
//
// Log renders the readout into the structured log, WebSocketHub streams every
// update as JSON to connected dashboards, and Fanout combines several
// presenters behind the single presenter the controller calls.
package presenter
