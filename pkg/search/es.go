package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/pkg/errors"

	"learnhub/pkg/models"
)

const courseIndex = "courses"

type Indexer interface {
	IndexCourse(ctx context.Context, course models.Course) error
	DeleteCourse(ctx context.Context, id string) error
	// SearchCourses matches titles; deep also matches descriptions, module and lesson titles.
	SearchCourses(ctx context.Context, query string, deep bool) ([]map[string]interface{}, error)
}

type Noop struct{}

func (Noop) IndexCourse(context.Context, models.Course) error { return nil }
func (Noop) DeleteCourse(context.Context, string) error       { return nil }
func (Noop) SearchCourses(context.Context, string, bool) ([]map[string]interface{}, error) {
	return []map[string]interface{}{}, nil
}

type Elastic struct {
	es *elasticsearch.Client
}

func NewElastic(es *elasticsearch.Client) *Elastic {
	return &Elastic{es: es}
}

func (e *Elastic) IndexCourse(ctx context.Context, course models.Course) error {
	data, err := json.Marshal(course.View())
	if err != nil {
		return errors.Wrap(err, "marshal course")
	}
	res, err := e.es.Index(
		courseIndex,
		bytes.NewReader(data),
		e.es.Index.WithContext(ctx),
		e.es.Index.WithDocumentID(course.ID),
		e.es.Index.WithRefresh("true"),
	)
	if err != nil {
		return errors.Wrap(err, "index course")
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch error: %s", res.String())
	}
	return nil
}

func (e *Elastic) DeleteCourse(ctx context.Context, id string) error {
	res, err := e.es.Delete(courseIndex, id, e.es.Delete.WithContext(ctx), e.es.Delete.WithRefresh("true"))
	if err != nil {
		return errors.Wrap(err, "delete course from index")
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("elasticsearch error: %s", res.String())
	}
	return nil
}

func (e *Elastic) SearchCourses(ctx context.Context, query string, deep bool) ([]map[string]interface{}, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(courseQuery(query, deep)); err != nil {
		return nil, errors.Wrap(err, "encode query")
	}
	res, err := e.es.Search(
		e.es.Search.WithContext(ctx),
		e.es.Search.WithIndex(courseIndex),
		e.es.Search.WithBody(&buf),
		e.es.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, errors.Wrap(err, "search courses")
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch error: %s", res.String())
	}

	var r struct {
		Hits struct {
			Hits []struct {
				Source map[string]interface{} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, errors.Wrap(err, "decode search response")
	}
	results := make([]map[string]interface{}, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		results = append(results, h.Source)
	}
	return results, nil
}

func courseQuery(query string, deep bool) map[string]interface{} {
	fields := []string{"title"}
	if deep {
		fields = append(fields, "description", "modules.title", "modules.lessons.title")
	}
	should := make([]interface{}, 0, len(fields))
	for _, f := range fields {
		should = append(should, map[string]interface{}{
			"wildcard": map[string]interface{}{
				f: map[string]interface{}{
					"value":            "*" + query + "*",
					"case_insensitive": true,
				},
			},
		})
	}
	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":                 []interface{}{map[string]interface{}{"term": map[string]interface{}{"isPublished": true}}},
				"should":               should,
				"minimum_should_match": 1,
			},
		},
	}
}
