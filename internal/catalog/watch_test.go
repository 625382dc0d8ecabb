package catalog

import (
	"os"
	"testing"
	"time"
)

func TestFileWatcherReportsChanges(t *testing.T) {
	dir := writeCatalog(t, map[string]string{"rewards": rewardsYAML})
	p := Paths{BaseDir: dir}

	changed := make(chan string, 8)
	w := WatchWheels(p, 5*time.Millisecond, func(path string) { changed <- path })
	w.Start()
	defer w.Stop()

	expect := func(want string) {
		t.Helper()
		select {
		case got := <-changed:
			if got != want {
				t.Fatalf("changed %q, want %q", got, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("no change reported for %s", want)
		}
	}

	// modify: push mtime forward so coarse filesystem clocks still see it
	rewards := p.WheelPath("rewards")
	future := time.Now().Add(time.Minute)
	if err := os.Chtimes(rewards, future, future); err != nil {
		t.Fatal(err)
	}
	expect(rewards)

	// add
	daily := p.WheelPath("daily")
	if err := os.WriteFile(daily, []byte(rewardsYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	expect(daily)

	// remove
	if err := os.Remove(daily); err != nil {
		t.Fatal(err)
	}
	expect(daily)
}
