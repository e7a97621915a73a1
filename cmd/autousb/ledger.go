package main

import (
	"autousb/internal/logging"
	"autousb/internal/packager"
	"autousb/internal/publish"
	"autousb/internal/store"
)

// ledgerRecorder writes packaging and publish attempts to the build history.
type ledgerRecorder struct {
	store *store.LocalStore
}

func (r ledgerRecorder) RecordBuild(a packager.Attempt) {
	rec := &store.BuildRecord{
		Backend:   string(a.Backend),
		Requested: a.Requested,
		Success:   a.Err == nil,
		CreatedAt: a.StartedAt,
		Duration:  a.Duration,
	}
	if a.Artifact != nil {
		rec.Destination = a.Artifact.Path
		rec.Tool = a.Artifact.Tool
		rec.SHA256 = a.Artifact.Hash
	}
	if a.Err != nil {
		rec.Error = a.Err.Error()
	}
	if err := r.store.AddBuild(rec); err != nil {
		logging.StoreWarn("could not record build: %v", err)
	}
}

func (r ledgerRecorder) RecordPublish(req publish.Request, res *publish.Result, err error) {
	rec := &store.PublishRecord{
		Volume:  req.Volume,
		Label:   req.Label,
		Success: err == nil,
	}
	if res != nil {
		rec.Executable = res.Executable
		rec.Duration = res.Duration
		if res.Copied != nil {
			rec.Copied = true
			rec.SHA256 = res.Copied.Hash
		}
	}
	if err != nil {
		rec.Error = err.Error()
	}
	if err := r.store.AddPublish(rec); err != nil {
		logging.StoreWarn("could not record publish: %v", err)
	}
}

func newPublisher() *publish.Publisher {
	if ledger == nil {
		return publish.New()
	}
	return publish.New(publish.WithRecorder(ledgerRecorder{store: ledger}))
}
