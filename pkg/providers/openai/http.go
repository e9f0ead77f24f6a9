package openai

import (
	"net/http"
	"net/url"
	"time"

	"github.com/nerdneilsfield/go-po-translator/pkg/translation"
	"golang.org/x/net/http/httpproxy"
)

// NewHTTPClient 创建带超时和代理的 HTTP 客户端
//
// proxyURL 为空时遵循 HTTP_PROXY / HTTPS_PROXY / NO_PROXY 环境变量。
func NewHTTPClient(timeout time.Duration, proxyURL string) (*http.Client, error) {
	proxyConfig := httpproxy.FromEnvironment()
	if proxyURL != "" {
		if _, err := url.Parse(proxyURL); err != nil {
			return nil, translation.NewConfigError("代理地址无效: "+proxyURL, err)
		}
		proxyConfig = &httpproxy.Config{
			HTTPProxy:  proxyURL,
			HTTPSProxy: proxyURL,
			NoProxy:    proxyConfig.NoProxy,
		}
	}
	proxyFunc := proxyConfig.ProxyFunc()

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = func(req *http.Request) (*url.URL, error) {
		return proxyFunc(req.URL)
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}, nil
}
