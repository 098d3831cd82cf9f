package utils

import (
	"net/http"
	"net/url"
	"time"
)

type HTTPClientConfig struct {
	Timeout       time.Duration // overall per-request cap; 0 leaves deadlines to request contexts
	KATimeout     time.Duration
	ProxyURL      string
	ProxyUsername string
	ProxyPassword string
	UserAgent     string
	Headers       map[string]string
}

type RecuHTTPClient struct {
	client *http.Client
	config HTTPClientConfig
}

func NewRecuHTTPClient(cfg HTTPClientConfig) *RecuHTTPClient {
	if cfg.KATimeout == 0 {
		cfg.KATimeout = 60 * time.Second
	}
	if cfg.Headers == nil {
		cfg.Headers = make(map[string]string)
	}
	transport := &http.Transport{
		IdleConnTimeout:     cfg.KATimeout,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		DisableCompression:  true,
		MaxConnsPerHost:     0,
	}
	if cfg.ProxyURL != "" {
		proxyURL, err := url.Parse(cfg.ProxyURL)
		if err == nil {
			if cfg.ProxyUsername != "" {
				if cfg.ProxyPassword != "" {
					proxyURL.User = url.UserPassword(cfg.ProxyUsername, cfg.ProxyPassword)
				} else {
					proxyURL.User = url.User(cfg.ProxyUsername)
				}
			}
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}
	return &RecuHTTPClient{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		config: cfg,
	}
}

// Do applies the client-level User-Agent and header overrides on top of
// whatever the request already carries, so per-request header variants
// survive unless the user explicitly overrode them.
func (r *RecuHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if r.config.UserAgent != "" {
		req.Header.Set("User-Agent", r.config.UserAgent)
	} else if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", "recudl")
	}
	for k, v := range r.config.Headers {
		req.Header.Set(k, v)
	}
	return r.client.Do(req)
}
