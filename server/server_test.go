package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/deadlines/pkg/domain"
	"github.com/umputun/deadlines/pkg/table"
	"github.com/umputun/deadlines/server/mocks"
)

var renderedAt = time.Date(2025, 7, 29, 21, 58, 59, 0, time.UTC)

func testRows() []domain.Row {
	return []domain.Row{
		{
			Source: "icml.yml", Label: "International Conference on Machine Learning", Title: "ICML",
			Place: "Vancouver, Canada", Date: "July 13-19, 2025", RawDeadline: "2025-08-01 23:59:59",
			Link: "https://icml.cc",
			Cell: domain.Cell{State: domain.CellOpen, Text: "01/08/2025, 23:59:59",
				Remaining: domain.Remaining{Days: 3, Hours: 2, Minutes: 1}, Countdown: "3d 2h 1m 0s",
				Urgency: domain.UrgencyUrgent},
		},
		{
			Source: "aaai.yml", Label: "AAAI", Title: "AAAI", Place: "-", Date: "-",
			RawDeadline: "2024-01-01 00:00:00",
			Cell:        domain.Cell{State: domain.CellClosed, Text: "⏳ prazo encerrado", Urgency: domain.UrgencyMuted},
		},
		{
			Source: "esann.yml", Label: "ESANN", Title: "ESANN", Place: "Bruges", Date: "-", RawDeadline: "TBD",
			Link: "https://esann.org",
			Cell: domain.Cell{State: domain.CellInvalid, Text: "-"},
		},
	}
}

func testBoard(rows []domain.Row, st table.Status) *mocks.BoardMock {
	return &mocks.BoardMock{
		RowsFunc:   func() []domain.Row { return rows },
		StatusFunc: func() table.Status { return st },
	}
}

func testServer(t *testing.T, board Board, renderer Renderer) *Server {
	t.Helper()
	return New(Config{
		Listen:      ":8080",
		BaseURL:     "http://localhost:8080",
		Version:     "test",
		Location:    time.UTC,
		Placeholder: "-",
		LinkLabel:   "🔗 site",
	}, board, renderer)
}

func serve(t *testing.T, srv *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, http.NoBody)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	return w
}

func TestServer_New(t *testing.T) {
	srv := New(Config{Version: "1.0.0"}, &mocks.BoardMock{}, &mocks.RendererMock{})
	require.NotNil(t, srv)
	assert.Equal(t, "1.0.0", srv.cfg.Version)
	assert.False(t, srv.cfg.Debug)
	assert.Equal(t, time.Second, srv.cfg.Poll, "poll defaults to a second")
	assert.Equal(t, "-", srv.cfg.Placeholder)
	assert.NotNil(t, srv.templates.Lookup("index.html"))
	assert.NotNil(t, srv.templates.Lookup("rows.html"))
}

func TestServer_Run(t *testing.T) {
	// find free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	err = listener.Close()
	require.NoError(t, err)

	srv := New(Config{Listen: fmt.Sprintf("127.0.0.1:%d", port), Timeout: 5 * time.Second, Version: "1.0.0"},
		testBoard(testRows(), table.Status{}), &mocks.RendererMock{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	// wait for server to start
	require.Eventually(t, func() bool {
		resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/ping", port))
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode == http.StatusOK && string(body) == "pong"
	}, 2*time.Second, 20*time.Millisecond)

	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/", port))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "deadlines", resp.Header.Get("App-Name"))

	// shutdown server
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server didn't stop")
	}
}

func TestServer_indexHandler(t *testing.T) {
	srv := testServer(t, testBoard(testRows(), table.Status{RenderedAt: renderedAt, Rows: 3}), &mocks.RendererMock{})

	w := serve(t, srv, "GET", "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))

	doc, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)

	headers := doc.Find("#confTable thead th").Map(func(_ int, s *goquery.Selection) string { return s.Text() })
	assert.Equal(t, []string{"Conference", "Acronym", "Place", "Date", "Deadline", "Link"}, headers)

	tbody := doc.Find("#confTable tbody")
	assert.Equal(t, "/rows", tbody.AttrOr("hx-get", ""))
	assert.Equal(t, "every 1000ms", tbody.AttrOr("hx-trigger", ""))

	rows := tbody.Find("tr")
	require.Equal(t, 3, rows.Length())

	first := rows.Eq(0).Find("td")
	assert.Equal(t, "International Conference on Machine Learning", first.Eq(0).Text())
	assert.Equal(t, "ICML", first.Eq(1).Text())
	assert.Equal(t, "Vancouver, Canada", first.Eq(2).Text())
	assert.Equal(t, "July 13-19, 2025", first.Eq(3).Text())
	cell := first.Eq(4)
	assert.True(t, cell.HasClass("deadline-cell"))
	assert.True(t, cell.HasClass("urgent"))
	assert.Equal(t, "2025-08-01 23:59:59", cell.AttrOr("data-deadline", ""))
	assert.Equal(t, "01/08/2025, 23:59:59", cell.Find("strong").Text())
	assert.Equal(t, "3d 2h 1m 0s", cell.Find(".countdown").Text())
	link := first.Eq(5).Find("a")
	assert.Equal(t, "https://icml.cc", link.AttrOr("href", ""))
	assert.Equal(t, "_blank", link.AttrOr("target", ""))
	assert.Equal(t, "🔗 site", link.Text())

	second := rows.Eq(1).Find("td")
	assert.True(t, second.Eq(4).HasClass("muted"))
	assert.Equal(t, "⏳ prazo encerrado", second.Eq(4).Text())
	assert.Equal(t, 0, second.Eq(5).Find("a").Length())
	assert.Equal(t, "-", second.Eq(5).Text())

	third := rows.Eq(2).Find("td")
	assert.Equal(t, "-", third.Eq(4).Text())
	assert.Equal(t, 0, third.Eq(4).Find(".countdown").Length())

	assert.Contains(t, doc.Find("footer").Text(), "rendered 2025-07-29 21:58:59")
}

func TestServer_rowsHandler(t *testing.T) {
	t.Run("fragment only", func(t *testing.T) {
		srv := testServer(t, testBoard(testRows(), table.Status{}), &mocks.RendererMock{})
		w := serve(t, srv, "GET", "/rows")
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), "<html")
		assert.Equal(t, 3, strings.Count(w.Body.String(), "<tr "))
	})

	t.Run("empty while rendering", func(t *testing.T) {
		srv := testServer(t, testBoard(nil, table.Status{Rendering: true}), &mocks.RendererMock{})
		w := serve(t, srv, "GET", "/rows")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "loading…")
	})

	t.Run("empty after render", func(t *testing.T) {
		srv := testServer(t, testBoard(nil, table.Status{RenderedAt: renderedAt}), &mocks.RendererMock{})
		w := serve(t, srv, "GET", "/rows")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "no conferences")
	})

	t.Run("markup in rows is escaped", func(t *testing.T) {
		rows := []domain.Row{{Label: "<script>x</script>", Title: "T", Place: "-", Date: "-", RawDeadline: "TBD",
			Link: `https://example.com/?a="b"`, Cell: domain.Cell{Text: "-"}}}
		srv := testServer(t, testBoard(rows, table.Status{}), &mocks.RendererMock{})
		w := serve(t, srv, "GET", "/rows")
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), "<script>")
		assert.Contains(t, w.Body.String(), "&lt;script&gt;")
	})
}

func TestServer_refreshHandler(t *testing.T) {
	t.Run("renders and returns fragment", func(t *testing.T) {
		renderer := &mocks.RendererMock{RenderAllFunc: func(ctx context.Context) error {
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline, "refresh is limited by timeout")
			return nil
		}}
		srv := testServer(t, testBoard(testRows(), table.Status{}), renderer)

		w := serve(t, srv, "POST", "/refresh")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, renderer.RenderAllCalls(), 1)
		assert.Equal(t, 3, strings.Count(w.Body.String(), "<tr "))
	})

	t.Run("render outlives canceled request", func(t *testing.T) {
		renderer := &mocks.RendererMock{RenderAllFunc: func(ctx context.Context) error {
			return ctx.Err()
		}}
		srv := testServer(t, testBoard(testRows(), table.Status{}), renderer)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		req := httptest.NewRequest("POST", "/refresh", http.NoBody).WithContext(ctx)
		w := httptest.NewRecorder()
		srv.refreshHandler(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("render failure", func(t *testing.T) {
		renderer := &mocks.RendererMock{RenderAllFunc: func(ctx context.Context) error {
			return errors.New("render canceled: context deadline exceeded")
		}}
		srv := testServer(t, testBoard(testRows(), table.Status{}), renderer)

		w := serve(t, srv, "POST", "/refresh")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "Failed to refresh deadlines")
	})
}

func TestServer_statusHandler(t *testing.T) {
	st := table.Status{RenderedAt: renderedAt, TickedAt: renderedAt.Add(5 * time.Second), Rows: 3, Failed: []string{"nips.yml"}}
	srv := testServer(t, testBoard(testRows(), st), &mocks.RendererMock{})

	w := serve(t, srv, "GET", "/api/v1/status")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var status struct {
		Status  string       `json:"status"`
		Version string       `json:"version"`
		Time    time.Time    `json:"time"`
		Board   table.Status `json:"board"`
	}
	err := json.Unmarshal(w.Body.Bytes(), &status)
	require.NoError(t, err)

	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "test", status.Version)
	assert.False(t, status.Time.IsZero())
	assert.Equal(t, 3, status.Board.Rows)
	assert.Equal(t, []string{"nips.yml"}, status.Board.Failed)
	assert.True(t, status.Board.TickedAt.Equal(renderedAt.Add(5*time.Second)))
}

func TestServer_deadlinesHandler(t *testing.T) {
	t.Run("rows in table order", func(t *testing.T) {
		srv := testServer(t, testBoard(testRows(), table.Status{RenderedAt: renderedAt, Rows: 3}), &mocks.RendererMock{})

		w := serve(t, srv, "GET", "/api/v1/deadlines")
		require.Equal(t, http.StatusOK, w.Code)

		var resp deadlinesResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 3, resp.Count)
		require.Len(t, resp.Rows, 3)
		assert.Equal(t, "icml.yml", resp.Rows[0].Source)
		assert.Equal(t, domain.CellOpen, resp.Rows[0].Cell.State)
		assert.Equal(t, domain.Remaining{Days: 3, Hours: 2, Minutes: 1}, resp.Rows[0].Cell.Remaining)
		assert.Equal(t, domain.UrgencyMuted, resp.Rows[1].Cell.Urgency)
		assert.True(t, resp.RenderedAt.Equal(renderedAt))
	})

	t.Run("empty board is an empty list", func(t *testing.T) {
		srv := testServer(t, testBoard(nil, table.Status{}), &mocks.RendererMock{})
		w := serve(t, srv, "GET", "/api/v1/deadlines")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"rows":[]`)
	})
}

func TestServer_refreshAPIHandler(t *testing.T) {
	t.Run("renders and returns rows", func(t *testing.T) {
		renderer := &mocks.RendererMock{RenderAllFunc: func(ctx context.Context) error {
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline, "refresh is limited by timeout")
			return nil
		}}
		srv := testServer(t, testBoard(testRows(), table.Status{RenderedAt: renderedAt, Rows: 3}), renderer)

		w := serve(t, srv, "POST", "/api/v1/refresh")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.Len(t, renderer.RenderAllCalls(), 1)

		var resp deadlinesResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 3, resp.Count)
		assert.Equal(t, "icml.yml", resp.Rows[0].Source)
	})

	t.Run("render failure is a json error", func(t *testing.T) {
		renderer := &mocks.RendererMock{RenderAllFunc: func(ctx context.Context) error {
			return errors.New("render canceled: context deadline exceeded")
		}}
		srv := testServer(t, testBoard(testRows(), table.Status{}), renderer)

		w := serve(t, srv, "POST", "/api/v1/refresh")
		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var resp map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "render canceled: context deadline exceeded", resp["error"])
	})
}

func TestServer_rssHandler(t *testing.T) {
	srv := testServer(t, testBoard(testRows(), table.Status{RenderedAt: renderedAt}), &mocks.RendererMock{})

	w := serve(t, srv, "GET", "/rss")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/rss+xml; charset=utf-8", w.Header().Get("Content-Type"))

	parsed, err := gofeed.NewParser().ParseString(w.Body.String())
	require.NoError(t, err)
	assert.Equal(t, "Conference deadlines", parsed.Title)
	require.Len(t, parsed.Items, 3)
	assert.Equal(t, "ICML deadline: 01/08/2025, 23:59:59", parsed.Items[0].Title)
	assert.Equal(t, "https://icml.cc", parsed.Items[0].Link)
	assert.Equal(t, "http://localhost:8080/", parsed.Items[1].Link, "rows without link point to the board")
}

func TestServer_calendarHandler(t *testing.T) {
	srv := testServer(t, testBoard(testRows(), table.Status{}), &mocks.RendererMock{})

	w := serve(t, srv, "GET", "/calendar.ics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/calendar; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "deadlines.ics")

	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body, "BEGIN:VCALENDAR\r\n"))
	assert.Equal(t, 2, strings.Count(body, "BEGIN:VEVENT"), "invalid deadline has no event")
	assert.Contains(t, body, "DTSTART:20250801T235959Z")
	assert.Contains(t, body, "LOCATION:Vancouver\\, Canada")
}

func TestServer_unknownRoute(t *testing.T) {
	srv := testServer(t, testBoard(testRows(), table.Status{}), &mocks.RendererMock{})
	w := serve(t, srv, "GET", "/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRenderJSON(t *testing.T) {
	data := map[string]string{
		"message": "test",
		"status":  "ok",
	}

	req := httptest.NewRequest("GET", "/test", http.NoBody)
	w := httptest.NewRecorder()

	RenderJSON(w, req, http.StatusOK, data)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var result map[string]string
	err := json.Unmarshal(w.Body.Bytes(), &result)
	require.NoError(t, err)
	assert.Equal(t, data, result)
}

func TestRenderError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode int
		expectedMsg  string
	}{
		{
			name:         "generic error",
			err:          errors.New("something went wrong"),
			expectedCode: http.StatusInternalServerError,
			expectedMsg:  "something went wrong",
		},
		{
			name:         "nil error",
			err:          nil,
			expectedCode: http.StatusInternalServerError,
			expectedMsg:  "unknown error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/test", http.NoBody)
			w := httptest.NewRecorder()

			RenderError(w, req, tt.err, tt.expectedCode)

			assert.Equal(t, tt.expectedCode, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var result map[string]interface{}
			err := json.Unmarshal(w.Body.Bytes(), &result)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedMsg, result["error"])
		})
	}
}
