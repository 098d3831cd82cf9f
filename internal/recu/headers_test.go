package recu

import "testing"

func TestFormatHeadersPageVariant(t *testing.T) {
	template := map[string]string{
		"Cookie":     "session=abc",
		"User-Agent": "test-agent",
	}
	h := FormatHeaders(template, "", PageHeaders)
	if h["Cookie"] != "session=abc" {
		t.Errorf("page variant lost the session cookie: %q", h["Cookie"])
	}
	if h["Sec-Fetch-Dest"] != "document" || h["Sec-Fetch-Mode"] != "navigate" || h["Sec-Fetch-Site"] != "none" {
		t.Errorf("page variant fetch metadata wrong: dest=%q mode=%q site=%q", h["Sec-Fetch-Dest"], h["Sec-Fetch-Mode"], h["Sec-Fetch-Site"])
	}
	if h["Referer"] != "https://recu.me/" {
		t.Errorf("page referer = %q", h["Referer"])
	}
	if h["Upgrade-Insecure-Requests"] != "1" {
		t.Error("page variant missing Upgrade-Insecure-Requests")
	}
}

func TestFormatHeadersAPIVariant(t *testing.T) {
	template := map[string]string{"Cookie": "session=abc"}
	apiURL := "https://recu.me/api/video/42?token=tok"
	h := FormatHeaders(template, apiURL, APIHeaders)
	if h["Referer"] != apiURL {
		t.Errorf("api referer = %q, want the endpoint itself", h["Referer"])
	}
	if h["X-Requested-With"] != "XMLHttpRequest" {
		t.Errorf("api variant missing XHR marker, got %q", h["X-Requested-With"])
	}
	if h["Sec-Fetch-Site"] != "same-origin" {
		t.Errorf("api Sec-Fetch-Site = %q", h["Sec-Fetch-Site"])
	}
	if h["Cookie"] != "session=abc" {
		t.Error("api variant must keep the session cookie")
	}
}

func TestFormatHeadersSegmentVariant(t *testing.T) {
	template := map[string]string{
		"Cookie":     "session=abc",
		"User-Agent": "test-agent",
	}
	h := FormatHeaders(template, "", SegmentHeaders)
	if _, ok := h["Cookie"]; ok {
		t.Error("segment variant must drop the session cookie")
	}
	if h["Sec-Fetch-Site"] != "cross-site" {
		t.Errorf("segment Sec-Fetch-Site = %q", h["Sec-Fetch-Site"])
	}
	for _, k := range []string{"Sec-Ch-Ua-Arch", "Sec-Ch-Ua-Bitness", "Sec-Ch-Ua-Full-Version-List", "Sec-Ch-Ua-Model", "Sec-Ch-Ua-Platform-Version"} {
		if _, ok := h[k]; ok {
			t.Errorf("segment variant must drop %s", k)
		}
	}
	if h["User-Agent"] != "test-agent" {
		t.Errorf("segment variant lost the user agent: %q", h["User-Agent"])
	}
	// The caller's template is a shared map and must stay untouched.
	if template["Cookie"] != "session=abc" {
		t.Error("template map was mutated")
	}
}
