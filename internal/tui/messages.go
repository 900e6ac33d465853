package tui

import "expenses/internal/services"

// ledgerLoadedMsg carries a fresh snapshot after load or mutation.
type ledgerLoadedMsg struct {
	snapshot services.Snapshot
	err      error
}

// addResultMsg reports the outcome of an add.
type addResultMsg struct {
	snapshot services.Snapshot
	err      error
}
