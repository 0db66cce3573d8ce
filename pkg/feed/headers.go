package feed

import "net/http"

// addRequestHeaders sets headers for conference file requests.
// Files are always fetched fresh, intermediate caches must revalidate.
func addRequestHeaders(req *http.Request, userAgent string) {
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	req.Header.Set("Accept", "application/yaml,application/x-yaml,text/yaml;q=0.9,text/plain;q=0.8,*/*;q=0.5")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
}
