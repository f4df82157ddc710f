package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/influxdata/colstats/stats"
	"github.com/spf13/cast"
)

// jobFile is the TOML layout of a job:
//
//	[[request]]
//	name = "hist"
//	columns = ["price", "name"]
//	buckets = 10
//	range = [0, 100]
//
// Numbers may be written as integers, floats or quoted strings.
type jobFile struct {
	Requests []jobRequest `toml:"request"`
}

type jobRequest struct {
	Name      string        `toml:"name"`
	Columns   []string      `toml:"columns"`
	Quantiles []interface{} `toml:"quantiles"`
	Buckets   interface{}   `toml:"buckets"`
	Range     []interface{} `toml:"range"`
	Estimate  bool          `toml:"estimate"`
	More      bool          `toml:"more"`
}

func loadJob(path string) ([]stats.Request, error) {
	var job jobFile
	md, err := toml.DecodeFile(path, &job)
	if err != nil {
		return nil, fmt.Errorf("failed to decode job %q: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("job %q has unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return job.requests()
}

func (j *jobFile) requests() ([]stats.Request, error) {
	if len(j.Requests) == 0 {
		return nil, fmt.Errorf("job lists no requests")
	}
	reqs := make([]stats.Request, len(j.Requests))
	for i, r := range j.Requests {
		req, err := r.request()
		if err != nil {
			return nil, fmt.Errorf("request %d (%s): %w", i, r.Name, err)
		}
		reqs[i] = req
	}
	return reqs, nil
}

func (r *jobRequest) request() (stats.Request, error) {
	if _, ok := stats.Lookup(r.Name); !ok {
		return stats.Request{}, fmt.Errorf("unknown operator %q, expected one of %s", r.Name, strings.Join(stats.Names(), ", "))
	}
	req := stats.Request{
		Name:    r.Name,
		Columns: r.Columns,
		Args:    stats.Args{Estimate: r.Estimate, More: r.More},
	}

	for _, q := range r.Quantiles {
		f, err := cast.ToFloat64E(q)
		if err != nil {
			return stats.Request{}, fmt.Errorf("invalid quantile: %w", err)
		}
		req.Args.Quantiles = append(req.Args.Quantiles, f)
	}

	if r.Buckets != nil {
		n, err := cast.ToIntE(r.Buckets)
		if err != nil {
			return stats.Request{}, fmt.Errorf("invalid buckets: %w", err)
		}
		req.Args.Buckets = n
	}

	if r.Range != nil {
		if len(r.Range) != 2 {
			return stats.Request{}, fmt.Errorf("range must hold a minimum and a maximum, got %d values", len(r.Range))
		}
		lo, err := cast.ToFloat64E(r.Range[0])
		if err != nil {
			return stats.Request{}, fmt.Errorf("invalid range minimum: %w", err)
		}
		hi, err := cast.ToFloat64E(r.Range[1])
		if err != nil {
			return stats.Request{}, fmt.Errorf("invalid range maximum: %w", err)
		}
		req.Args.Range = &stats.Range{Min: lo, Max: hi}
	}
	return req, nil
}
