package reviewsite

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profscope/hub/internal/source"
)

func TestAdapter_Fetch(t *testing.T) {
	t.Run("scrapes reviews from profile page", func(t *testing.T) {
		var srvURL string

		mux := http.NewServeMux()
		mux.HandleFunc("/search/teachers", func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprintf(w, `<html><a href="/professor/4321">A. Lee</a></html>`)
		})
		mux.HandleFunc("/professor/4321", func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `<html>
				<p class="Comments__Text">Very <b>clear</b> lectures.</p>
				<p class="Comments__Text">Tough grader.</p>
			</html>`)
		})

		srv := httptest.NewServer(mux)
		defer srv.Close()

		srvURL = srv.URL

		a := New(Config{BaseURL: srvURL})
		it, err := a.Fetch(context.Background(), source.Scope{ProfessorName: "A. Lee"})
		require.NoError(t, err)

		first, err := it.Next(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Very clear lectures.", first.ReviewText)
		assert.Equal(t, source.KeyContent, first.Key.Kind)
		assert.NotEmpty(t, first.Key.ContentHash)
		require.NotNil(t, first.ProfileURL)
		assert.Equal(t, srvURL+"/professor/4321", *first.ProfileURL)

		second, err := it.Next(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Tough grader.", second.ReviewText)

		_, err = it.Next(context.Background())
		assert.True(t, errors.Is(err, io.EOF))
	})

	t.Run("unlisted professor yields empty sequence", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `<html>no results</html>`)
		}))
		defer srv.Close()

		a := New(Config{BaseURL: srv.URL})
		it, err := a.Fetch(context.Background(), source.Scope{ProfessorName: "Nobody"})
		require.NoError(t, err)

		_, err = it.Next(context.Background())
		assert.True(t, errors.Is(err, io.EOF))
	})

	t.Run("max items caps reviews", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/search/teachers", func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `<a href="/professor/1">x</a>`)
		})
		mux.HandleFunc("/professor/1", func(w http.ResponseWriter, _ *http.Request) {
			for i := 0; i < 5; i++ {
				fmt.Fprintf(w, `<p class="Comments__Text">review %d</p>`, i)
			}
		})

		srv := httptest.NewServer(mux)
		defer srv.Close()

		a := New(Config{BaseURL: srv.URL})
		it, err := a.Fetch(context.Background(), source.Scope{ProfessorName: "x", MaxItems: 2})
		require.NoError(t, err)

		count := 0

		for {
			_, err := it.Next(context.Background())
			if errors.Is(err, io.EOF) {
				break
			}

			require.NoError(t, err)
			count++
		}

		assert.Equal(t, 2, count)
	})
}
