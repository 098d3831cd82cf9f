package recu

// HeaderVariant selects the request posture for FormatHeaders. Page
// fetches mimic document navigation, API fetches mimic a same-origin
// XHR, and segment fetches are cross-site and must not carry the
// session cookie.
type HeaderVariant int

const (
	SegmentHeaders HeaderVariant = iota
	PageHeaders
	APIHeaders
)

// FormatHeaders expands the user-supplied header template (Cookie and
// User-Agent) into the full request header set for one variant.
// videoURL is only consulted for the API variant, which uses the API
// endpoint itself as the referer.
func FormatHeaders(template map[string]string, videoURL string, variant HeaderVariant) map[string]string {
	header := make(map[string]string, len(template)+20)
	for k, v := range template {
		header[k] = v
	}
	header["Accept"] = "*/*"
	header["Accept-Language"] = "en-US,en;q=0.9"
	header["Origin"] = "https://recu.me"
	header["Priority"] = "u=1, i"
	header["Sec-Ch-Ua"] = `"Chromium";v="128", "Not?A_Brand";v="24", "Microsoft Edge";v="128"`
	header["Sec-Ch-Ua-Arch"] = `"x86"`
	header["Sec-Ch-Ua-Bitness"] = `"64"`
	header["Sec-Ch-Ua-Full-Version"] = `"128.0.2739.67"`
	header["Sec-Ch-Ua-Full-Version-List"] = `"Chromium";v="128.0.6613.120", "Not?A_Brand";v="24.0.0.0", "Microsoft Edge";v="128.0.2739.67"`
	header["Sec-Ch-Ua-Mobile"] = "?0"
	header["Sec-Ch-Ua-Model"] = `""`
	header["Sec-Ch-Ua-Platform"] = `"Windows"`
	header["Sec-Ch-Ua-Platform-Version"] = `"15.0.0"`
	header["Sec-Fetch-Dest"] = "empty"
	header["Sec-Fetch-Mode"] = "cors"
	switch variant {
	case PageHeaders:
		header["Accept"] = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7"
		header["Referer"] = "https://recu.me/"
		header["Sec-Fetch-Dest"] = "document"
		header["Sec-Fetch-Mode"] = "navigate"
		header["Sec-Fetch-Site"] = "none"
		header["Sec-Fetch-User"] = "?1"
		header["Upgrade-Insecure-Requests"] = "1"
	case APIHeaders:
		header["Referer"] = videoURL
		header["Sec-Fetch-Site"] = "same-origin"
		header["X-Requested-With"] = "XMLHttpRequest"
	default:
		header["Sec-Fetch-Site"] = "cross-site"
		delete(header, "Cookie")
		delete(header, "Sec-Ch-Ua-Arch")
		delete(header, "Sec-Ch-Ua-Bitness")
		delete(header, "Sec-Ch-Ua-Full-Version")
		delete(header, "Sec-Ch-Ua-Full-Version-List")
		delete(header, "Sec-Ch-Ua-Model")
		delete(header, "Sec-Ch-Ua-Platform-Version")
	}
	return header
}
