package main

import (
	"errors"
	"os"
	"testing"
)

func TestMainVersion(t *testing.T) {
	oldArgs := os.Args
	os.Args = []string{"aptjitter", "version"}
	defer func() { os.Args = oldArgs }()
	oldExit := osExit
	osExit = func(code int) {
		if code != 0 {
			t.Fatalf("unexpected exit code: %d", code)
		}
	}
	defer func() { osExit = oldExit }()
	main()
}

func TestRunMainError(t *testing.T) {
	code := runMain([]string{"aptjitter"}, func([]string) error {
		return errors.New("boom")
	})
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
}

func TestRunMainSuccess(t *testing.T) {
	var got []string
	code := runMain([]string{"aptjitter", "offset"}, func(args []string) error {
		got = args
		return nil
	})
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if len(got) != 2 || got[1] != "offset" {
		t.Fatalf("args not passed through: %v", got)
	}
}
