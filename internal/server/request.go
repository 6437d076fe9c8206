package server

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/lawnchairsociety/dungeontopo/internal/topology"
)

// GenerateRequest overrides the server's default generation options. Unset
// fields keep the defaults.
type GenerateRequest struct {
	Rooms         *int   `json:"rooms,omitempty"`
	Boss          *bool  `json:"boss,omitempty"`
	Seed          *int64 `json:"seed,omitempty"`
	DegreeRule    string `json:"degree_rule,omitempty"`
	UniformDegree *int   `json:"uniform_degree,omitempty"`
	Degrees       []int  `json:"degrees,omitempty"`
	Save          bool   `json:"save,omitempty"`
}

// requestError marks a malformed request.
type requestError struct {
	err error
}

func (e *requestError) Error() string { return "bad request: " + e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

// parseQuery reads a GenerateRequest from URL query parameters.
func parseQuery(q url.Values) (GenerateRequest, error) {
	var req GenerateRequest

	intParam := func(name string) (*int, error) {
		s := q.Get(name)
		if s == "" {
			return nil, nil
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, &requestError{err: fmt.Errorf("%s: %w", name, err)}
		}
		return &v, nil
	}

	var err error
	if req.Rooms, err = intParam("rooms"); err != nil {
		return req, err
	}
	if req.UniformDegree, err = intParam("uniform_degree"); err != nil {
		return req, err
	}

	if s := q.Get("boss"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return req, &requestError{err: fmt.Errorf("boss: %w", err)}
		}
		req.Boss = &b
	}

	if s := q.Get("seed"); s != "" {
		seed, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return req, &requestError{err: fmt.Errorf("seed: %w", err)}
		}
		req.Seed = &seed
	}

	req.DegreeRule = q.Get("degree_rule")

	if s := q.Get("degrees"); s != "" {
		for _, part := range strings.Split(s, ",") {
			d, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return req, &requestError{err: fmt.Errorf("degrees: %w", err)}
			}
			req.Degrees = append(req.Degrees, d)
		}
	}

	req.Save, _ = strconv.ParseBool(q.Get("save"))
	return req, nil
}

// apply layers the request over base.
func (r GenerateRequest) apply(base topology.Options) topology.Options {
	opts := base
	if r.Rooms != nil {
		opts.Rooms = *r.Rooms
	}
	if r.Boss != nil {
		opts.Boss = *r.Boss
	}
	if r.Seed != nil {
		opts.Seed = *r.Seed
	}
	if r.DegreeRule != "" {
		opts.DegreeRule = topology.DegreeRule(r.DegreeRule)
	}
	if r.UniformDegree != nil {
		opts.UniformDegree = *r.UniformDegree
	}
	if r.Degrees != nil {
		opts.Degrees = r.Degrees
		if r.DegreeRule == "" {
			opts.DegreeRule = topology.DegreeExplicit
		}
	}
	return opts
}
