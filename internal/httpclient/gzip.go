package httpclient

import (
	"compress/gzip"
	"io"
)

type gzipBody struct {
	r     *gzip.Reader
	close io.Closer
}

func newGzipBody(body io.ReadCloser) (io.ReadCloser, error) {
	gr, err := gzip.NewReader(body)
	if err != nil {
		return nil, err
	}
	return &gzipBody{r: gr, close: body}, nil
}

func (g *gzipBody) Read(p []byte) (int, error) { return g.r.Read(p) }

func (g *gzipBody) Close() error {
	g.r.Close()
	return g.close.Close()
}
