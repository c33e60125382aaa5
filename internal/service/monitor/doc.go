// Package monitor polls a running engine over the status API and logs what it reports.
package monitor
