package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

const browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// maxBodyBytes caps how much of an upstream response is read.
const maxBodyBytes = 4 << 20

type fetchOptions struct {
	accept  string
	referer string
	gbk     bool
}

// fetch issues a GET and returns the body, decoded from GBK when asked to or when the
// response advertises a GB charset.
func fetch(ctx context.Context, client *http.Client, name, url string, opts fetchOptions) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", browserUserAgent)
	if opts.accept != "" {
		req.Header.Set("Accept", opts.accept)
	}
	if opts.referer != "" {
		req.Header.Set("Referer", opts.referer)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%s API error %d: %s", name, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var reader io.Reader = io.LimitReader(resp.Body, maxBodyBytes)
	if opts.gbk || isGBCharset(resp.Header.Get("Content-Type")) {
		reader = transform.NewReader(reader, simplifiedchinese.GBK.NewDecoder())
	}
	return io.ReadAll(reader)
}

func isGBCharset(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "charset=gb")
}

// validPrice reports whether p is usable as a quote price.
func validPrice(p float64) bool {
	return p > 0 && !math.IsNaN(p) && !math.IsInf(p, 0)
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// flexFloat decodes a JSON number or a numeric string.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" || raw == `""` {
		*f = 0
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, ok := parseNumber(s)
		if !ok {
			return fmt.Errorf("invalid number %q", s)
		}
		*f = flexFloat(v)
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

func changePct(price, prevClose float64) float64 {
	if prevClose <= 0 {
		return 0
	}
	return (price/prevClose - 1) * 100
}
