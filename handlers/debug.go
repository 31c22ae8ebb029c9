package handlers

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
)

// Thanks to:
// https://github.com/kjk/go-cookbook/tree/master/embed-build-number

func Debug(repoURL, version, sha1ver, buildtime string) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		s := fmt.Sprintf("url: %s %s", r.Method, r.RequestURI)
		a := []string{s}

		keys := make([]string, 0, len(r.Header))
		for k := range r.Header {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		a = append(a, "Headers:")
		for _, k := range keys {
			v := r.Header[k]
			if len(v) == 0 {
				a = append(a, k)
			} else if len(v) == 1 {
				s = fmt.Sprintf("  %s: %v", k, v[0])
				a = append(a, s)
			} else {
				a = append(a, "  "+k+":")
				for _, v2 := range v {
					a = append(a, "    "+v2)
				}
			}
		}

		a = append(a, "")
		a = append(a, fmt.Sprintf("version: %s", version))
		a = append(a, fmt.Sprintf("ver: %s/commit/%s", repoURL, sha1ver))
		a = append(a, fmt.Sprintf("built on: %s", buildtime))

		s = strings.Join(a, "\n")

		servePlainText(rw, s)
	})
}

func servePlainText(w http.ResponseWriter, s string) {
	w.Header().Set("Content-Type", "text/plain")
	w.Header().Set("Content-Length", strconv.Itoa(len(s)))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(s)) // nolint
}
