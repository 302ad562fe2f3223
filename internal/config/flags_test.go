package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFlagRoundtrip(t *testing.T) {
	dir := t.TempDir()
	SetFlagsPath(filepath.Join(dir, "flags.json"))

	f := GenFlag[int]("test.roundtrip.limit", 3, "Test limit")
	if f.Value() != 3 {
		t.Fatalf("default value = %d, wanted 3", f.Value())
	}

	f.Update(7)
	if f.Value() != 7 {
		t.Fatalf("updated value = %d, wanted 7", f.Value())
	}

	if v, ok := GetFlagVal[int]("test.roundtrip.limit"); !ok || v != 7 {
		t.Fatalf("GetFlagVal = %d, %v", v, ok)
	}
	if _, ok := GetFlagVal[string]("test.roundtrip.limit"); ok {
		t.Fatal("lookup with wrong type should fail")
	}
}

func TestFlagOverrides(t *testing.T) {
	dir := t.TempDir()
	SetFlagsPath(filepath.Join(dir, "flags.json"))

	strFlag := GenFlag[string]("test.override.name", "before", "Test name")
	intFlag := GenFlag[int]("test.override.count", 1, "Test count")

	os.Setenv("ALM_FLAG_OVERRIDES", "test.override.name=after,test.override.count=5")
	defer os.Unsetenv("ALM_FLAG_OVERRIDES")

	if err := LoadFlags(context.Background()); err != nil {
		t.Fatal(err)
	}
	if strFlag.Value() != "after" {
		t.Fatalf("string override = %q", strFlag.Value())
	}
	if intFlag.Value() != 5 {
		t.Fatalf("int override = %d", intFlag.Value())
	}
}
