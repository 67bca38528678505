package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/veridex/veridex/internal/model"
)

func testConfig(respectRobots bool) model.FetchConfig {
	return model.FetchConfig{
		Timeout:       5 * time.Second,
		UserAgent:     "Veridex/0.1-test",
		MaxBodyBytes:  1_000_000,
		RespectRobots: respectRobots,
	}
}

const articlePage = `<!DOCTYPE html>
<html><head><title>Quake Report</title></head><body>
<nav>Home | World | Science</nav>
<article>
<h1>Quake Report</h1>
<p>A magnitude 6.1 earthquake struck the region on Tuesday, according to the national seismology agency. Officials said at least 40 buildings were damaged in the initial assessment of the affected districts.</p>
<p>The agency recorded twelve aftershocks within the first six hours, the strongest measuring magnitude 4.8 near the original epicenter zone.</p>
</article>
<footer>Copyright</footer>
</body></html>`

func TestFetcher_ExtractsBodyText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(articlePage))
	}))
	defer srv.Close()

	f := NewFetcher(testConfig(false))
	article, err := f.Fetch(context.Background(), srv.URL+"/news/quake")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(article.Text, "magnitude 6.1 earthquake") {
		t.Errorf("body text missing article content: %q", article.Text)
	}
	if strings.Contains(article.Text, "Copyright") {
		t.Errorf("boilerplate survived extraction: %q", article.Text)
	}
	if article.FinalURL == "" {
		t.Error("final URL not recorded")
	}
}

func TestFetcher_RobotsDisallowBlocks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /news/\n"))
			return
		}
		_, _ = w.Write([]byte(articlePage))
	}))
	defer srv.Close()

	f := NewFetcher(testConfig(true))
	_, err := f.Fetch(context.Background(), srv.URL+"/news/quake")
	if err == nil {
		t.Fatal("expected robots.txt disallow to block the fetch")
	}
	if !strings.Contains(err.Error(), "robots") {
		t.Errorf("error should mention robots: %v", err)
	}
}

func TestFetcher_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	f := NewFetcher(testConfig(false))
	if _, err := f.Fetch(context.Background(), srv.URL+"/x"); err == nil {
		t.Fatal("expected error for 410 response")
	}
}

func TestFetcher_EmptyPageIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><head></head><body><script>x()</script></body></html>"))
	}))
	defer srv.Close()

	f := NewFetcher(testConfig(false))
	if _, err := f.Fetch(context.Background(), srv.URL+"/empty"); err == nil {
		t.Fatal("expected error for page with no readable text")
	}
}

func TestVisibleText_SkipsScriptsAndNav(t *testing.T) {
	u, _ := url.Parse("https://example.com/news/quake")
	_, text := extractReadable([]byte(articlePage), u)
	if strings.Contains(text, "x()") {
		t.Error("script content leaked into visible text")
	}
}
