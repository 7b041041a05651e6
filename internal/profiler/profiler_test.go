package profiler

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeClock advances by step on every call
type fakeClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

var (
	fetchOp = Operation{Type: "page.HTMLFetcher", Method: "Fetch"}
	crawlOp = Operation{Type: "crawler.ParallelCrawler", Method: "Crawl"}
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0m 0s 0ms"},
		{1500 * time.Millisecond, "0m 1s 500ms"},
		{2*time.Minute + 3*time.Second + 4*time.Millisecond, "2m 3s 4ms"},
		{90 * time.Minute, "90m 0s 0ms"},
	}

	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestStartRecordsDeclaredOperations(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), step: 250 * time.Millisecond}
	p := New(clock.Now, fetchOp)
	if want := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC); !p.StartTime().Equal(want) {
		t.Errorf("StartTime() = %v, want %v", p.StartTime(), want)
	}

	for i := 0; i < 4; i++ {
		stop := p.Start(fetchOp)
		stop()
	}
	p.Start(crawlOp)()

	if got := p.Total(fetchOp); got != time.Second {
		t.Errorf("Total(fetch) = %v, want 1s", got)
	}
	if got := p.Total(crawlOp); got != 0 {
		t.Errorf("Total(crawl) = %v, want 0 for undeclared operation", got)
	}
	if p.Profiled(crawlOp) {
		t.Error("Profiled(crawl) = true, want false")
	}
}

func TestRecordConcurrent(t *testing.T) {
	p := New(time.Now, fetchOp)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Record(fetchOp, time.Millisecond)
		}()
	}
	wg.Wait()

	if got := p.Total(fetchOp); got != 50*time.Millisecond {
		t.Errorf("Total() = %v, want 50ms", got)
	}
}

func TestWriteData(t *testing.T) {
	start := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	p := New(func() time.Time { return start }, fetchOp, crawlOp)
	p.Record(fetchOp, 1500*time.Millisecond)
	p.Record(crawlOp, 2*time.Minute)

	var sb strings.Builder
	if err := p.WriteData(&sb); err != nil {
		t.Fatalf("WriteData() error = %v", err)
	}

	want := "Run at Tue, 02 Jan 2024 03:04:05 UTC\n" +
		"crawler.ParallelCrawler#Crawl took 2m 0s 0ms\n" +
		"page.HTMLFetcher#Fetch took 0m 1s 500ms\n" +
		"\n"
	if sb.String() != want {
		t.Errorf("WriteData() =\n%s\nwant\n%s", sb.String(), want)
	}
}

func TestWriteFileAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.txt")
	p := New(time.Now, fetchOp)
	p.Record(fetchOp, time.Millisecond)

	if err := p.WriteFile(path); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := p.WriteFile(path); err != nil {
		t.Fatalf("WriteFile() second call error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if n := strings.Count(string(data), "Run at "); n != 2 {
		t.Errorf("Expected 2 reports in file, got %d", n)
	}
}
