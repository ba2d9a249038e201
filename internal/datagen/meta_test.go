package datagen

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pfbverify/internal/services"
)

func TestMetaRoundTripKeepsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	raw := `{"input_file": "impulse.dump", "channelized_file": "channelized.impulse.dump", "n_bins": 28672}`
	if err := os.WriteFile(filepath.Join(dir, MetaFileName), []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	meta, err := LoadMeta(dir)
	if err != nil {
		t.Fatalf("LoadMeta: %v", err)
	}
	if meta.ChannelizedFile != "channelized.impulse.dump" {
		t.Fatalf("channelized = %q", meta.ChannelizedFile)
	}
	meta.DspsrArchive = "channelized.impulse.ar"
	meta.DspsrDump = "pre_Detection.channelized.impulse.dump"
	if err := SaveMeta(dir, meta); err != nil {
		t.Fatalf("SaveMeta: %v", err)
	}

	reloaded, err := LoadMeta(dir)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.DspsrDump != meta.DspsrDump || reloaded.InputFile != "impulse.dump" {
		t.Fatalf("unexpected meta %+v", reloaded)
	}
	nbins, ok := reloaded.Extra("n_bins")
	if !ok || strings.TrimSpace(string(nbins)) != "28672" {
		t.Fatalf("n_bins lost: %s", nbins)
	}
}

func TestLoadMetaMissing(t *testing.T) {
	if _, err := LoadMeta(t.TempDir()); !errors.Is(err, services.ErrMissingArtifact) {
		t.Fatalf("expected ErrMissingArtifact, got %v", err)
	}
}
