package ember

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type bindTarget struct {
	Name string `form:"name"`
	Age  int    `form:"age"`
}

func TestBindFromQuery(t *testing.T) {
	u := NewURL(false, "example.com", 0, "/", "name=Ada&age=30")
	req := &Request{Method: "GET", URL: u, Headers: Headers{}}

	var v bindTarget
	err := req.Bind(&v)
	assert.NoError(t, err)
	assert.Equal(t, "Ada", v.Name)
	assert.Equal(t, 30, v.Age)
}

func TestBindFromJSON(t *testing.T) {
	u := NewURL(false, "example.com", 0, "/", "")
	req := &Request{
		Method:  "POST",
		URL:     u,
		Headers: Headers{"content-type": {"application/json"}},
		Body:    &Body{Kind: BodyMemory, mem: []byte(`{"name":"Grace","age":40}`)},
	}

	var v bindTarget
	err := req.Bind(&v)
	assert.NoError(t, err)
	assert.Equal(t, "Grace", v.Name)
	assert.Equal(t, 40, v.Age)
}

func TestBindFromJSONMalformed(t *testing.T) {
	u := NewURL(false, "example.com", 0, "/", "")
	req := &Request{
		Method:  "POST",
		URL:     u,
		Headers: Headers{"content-type": {"application/json"}},
		Body:    &Body{Kind: BodyMemory, mem: []byte(`not json`)},
	}

	var v bindTarget
	err := req.Bind(&v)
	assert.Error(t, err)
}

func TestSplitMediaType(t *testing.T) {
	mt, _, ok := splitMediaType("application/json; charset=utf-8")
	assert.True(t, ok)
	assert.Equal(t, "application/json", mt)

	_, _, ok = splitMediaType("")
	assert.False(t, ok)
}
