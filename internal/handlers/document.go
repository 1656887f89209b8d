package handlers

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	catalogerrors "github.com/amaumene/gocatalog/internal/errors"
	"github.com/amaumene/gocatalog/internal/models"
)

// Store-assigned attributes, ignored on input.
var metaKeys = []string{"id", "documentId", "createdAt", "updatedAt", "publishedAt"}

type requestBody struct {
	Data map[string]any `json:"data"`
}

// readData reads the {data: {...}} body of a write request.
func readData(c *gin.Context, collection models.Collection) (map[string]any, error) {
	var body requestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		return nil, catalogerrors.NewValidationError("", "Invalid JSON body")
	}
	if body.Data == nil {
		return nil, catalogerrors.NewValidationError("data", `Missing "data" payload in the request body`)
	}
	if err := normalizeInput(collection, body.Data); err != nil {
		return nil, err
	}
	return body.Data, nil
}

// normalizeInput drops store-assigned attributes, rejects unknown keys and reduces every
// relation input to the referenced documentId.
func normalizeInput(collection models.Collection, data map[string]any) error {
	for _, k := range metaKeys {
		delete(data, k)
	}

	proto := collection.New()
	relations := collection.RelationFields()
	for key, value := range data {
		if _, ok := relations[key]; ok {
			documentID, ok := relationID(value)
			if !ok {
				return catalogerrors.NewValidationError(key, fmt.Sprintf("Invalid relation input for %s", key))
			}
			data[key] = documentID
			continue
		}
		if _, ok := proto.Field(key); !ok {
			return catalogerrors.NewValidationError(key, fmt.Sprintf("Invalid key %s", key))
		}
	}
	return nil
}

// relationID accepts "doc", {documentId: "doc"}, {connect: [{documentId: "doc"}]} and
// {set: [...]}; the first reference wins. An empty connect list disconnects.
func relationID(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", true
	case string:
		return val, true
	case map[string]any:
		if id, ok := val["documentId"].(string); ok {
			return id, true
		}
		for _, op := range []string{"set", "connect"} {
			refs, present := val[op]
			if !present {
				continue
			}
			switch list := refs.(type) {
			case []any:
				if len(list) == 0 {
					return "", true
				}
				return relationID(list[0])
			default:
				return relationID(list)
			}
		}
	}
	return "", false
}

// toEntry decodes normalized input into a document of collection.
func toEntry(collection models.Collection, data map[string]any) (models.Entry, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, catalogerrors.NewValidationError("", "Invalid payload")
	}
	e := collection.New()
	if err := json.Unmarshal(raw, e); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, catalogerrors.NewValidationError(typeErr.Field,
				fmt.Sprintf("%s must be of type %s", typeErr.Field, typeErr.Type))
		}
		return nil, catalogerrors.NewValidationError("", "Invalid payload")
	}
	return e, nil
}

// merge overlays data on the attributes of existing.
func merge(existing models.Entry, data map[string]any) (map[string]any, error) {
	raw, err := json.Marshal(existing)
	if err != nil {
		return nil, err
	}
	merged := map[string]any{}
	if err := json.Unmarshal(raw, &merged); err != nil {
		return nil, err
	}
	for _, k := range metaKeys {
		delete(merged, k)
	}
	for k, v := range data {
		merged[k] = v
	}
	return merged, nil
}

// attributes renders a document as a JSON object.
func attributes(e models.Entry) (map[string]any, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	return out, json.Unmarshal(raw, &out)
}

// project keeps the requested fields; id and documentId are always returned.
func project(e models.Entry, fields []string) (any, error) {
	if len(fields) == 0 {
		return e, nil
	}
	all, err := attributes(e)
	if err != nil {
		return nil, err
	}
	out := map[string]any{"id": all["id"], "documentId": all["documentId"]}
	for _, f := range fields {
		if v, ok := all[f]; ok {
			out[f] = v
		}
	}
	return out, nil
}

// validateQuery rejects filters and sorts on attributes collection does not have.
func validateQuery(collection models.Collection, q models.Query) error {
	proto := collection.New()
	for _, f := range q.Filters {
		if _, ok := proto.Field(f.Field); !ok {
			return catalogerrors.NewValidationError(f.Field, fmt.Sprintf("Invalid key %s", f.Field))
		}
	}
	for _, s := range q.Sort {
		if _, ok := proto.Field(s.Field); !ok {
			return catalogerrors.NewValidationError(s.Field, fmt.Sprintf("Invalid key %s", s.Field))
		}
	}
	for _, f := range q.Fields {
		if _, ok := proto.Field(f); !ok {
			return catalogerrors.NewValidationError(f, fmt.Sprintf("Invalid key %s", f))
		}
	}
	return nil
}
