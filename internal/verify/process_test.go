package verify_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"pfbverify/internal/datagen"
	"pfbverify/internal/services"
	"pfbverify/internal/verify"
)

func TestProcessTestVectors(t *testing.T) {
	base := t.TempDir()
	for _, domain := range []string{"time", "freq"} {
		dir := filepath.Join(base, domain, "case0")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		writeDump(t, filepath.Join(dir, "channelized.dump"), []complex64{1, 2})
		if err := datagen.SaveMeta(dir, &datagen.Meta{ChannelizedFile: "channelized.dump"}); err != nil {
			t.Fatal(err)
		}
	}
	dumper := &fakeDumper{t: t, scale: 1}

	report, err := verify.ProcessTestVectors(context.Background(), dumper, base, 0, nil)
	if err != nil {
		t.Fatalf("ProcessTestVectors: %v", err)
	}
	if len(report["time"]) != 1 || len(report["freq"]) != 1 {
		t.Fatalf("unexpected report %v", report)
	}
	if got := dumper.reqs[0].ExtraArgs; got != "-IF 1:16384" {
		t.Fatalf("extra args = %q", got)
	}
	meta, err := datagen.LoadMeta(filepath.Join(base, "time", "case0"))
	if err != nil {
		t.Fatal(err)
	}
	if meta.DspsrDump != "pre_Detection.channelized.dump" || meta.DspsrArchive != "channelized.ar" {
		t.Fatalf("meta not updated: %+v", meta)
	}
}

func TestProcessTestVectorsMissingDomain(t *testing.T) {
	_, err := verify.ProcessTestVectors(context.Background(), &fakeDumper{t: t}, t.TempDir(), 0, nil)
	if !errors.Is(err, services.ErrMissingArtifact) {
		t.Fatalf("expected ErrMissingArtifact, got %v", err)
	}
}
