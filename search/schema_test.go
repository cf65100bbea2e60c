package search

import (
	"encoding/json"

	check "gopkg.in/check.v1"
)

// Initialize and register an instance of the schemaTestSuite to be
// executed by the check testing package.
var _ = check.Suite(new(schemaTestSuite))

// schemaTestSuite guards the contract between the mapping, the document
// projector and the query builder: the three share field names by value,
// so a rename in one place must be caught here.
type schemaTestSuite struct{}

func (s *schemaTestSuite) TestQueryFieldReferencesResolveAgainstMapping(c *check.C) {
	declared := declaredFieldPaths(c)

	for _, field := range []string{
		fieldTitle,
		fieldTitleTokenized,
		fieldAbstract,
		fieldContent,
		fieldContentTokenized,
		fieldPublishedOn,
		fieldCategories,
		fieldAuthorFullNameRaw,
	} {
		c.Assert(
			declared[field], check.Equals, true,
			check.Commentf("field %q is referenced but not declared by the mapping", field),
		)
	}
}

func (s *schemaTestSuite) TestProjectedDocumentMatchesMappingProperties(c *check.C) {
	doc, err := Project(fullArticle())
	c.Assert(err, check.IsNil)

	raw, err := json.Marshal(doc)
	c.Assert(err, check.IsNil)

	var docFields map[string]interface{}
	c.Assert(json.Unmarshal(raw, &docFields), check.IsNil)

	var mapping struct {
		Mappings struct {
			Properties map[string]interface{} `json:"properties"`
		} `json:"mappings"`
	}
	c.Assert(json.Unmarshal([]byte(Mappings), &mapping), check.IsNil)

	// Every top-level document key must be declared, and every declared
	// property must be produced: no extra and no missing fields.
	for field := range docFields {
		_, declared := mapping.Mappings.Properties[field]
		c.Assert(
			declared, check.Equals, true,
			check.Commentf("document field %q is not declared by the mapping", field),
		)
	}

	for property := range mapping.Mappings.Properties {
		_, produced := docFields[property]
		c.Assert(
			produced, check.Equals, true,
			check.Commentf("mapping property %q is not produced by the projector", property),
		)
	}
}

// declaredFieldPaths parses Mappings and returns the set of dotted field
// paths it declares, including multi-analyzer sub-fields and nested object
// properties.
func declaredFieldPaths(c *check.C) map[string]bool {
	var mapping struct {
		Mappings struct {
			Properties map[string]json.RawMessage `json:"properties"`
		} `json:"mappings"`
	}
	c.Assert(json.Unmarshal([]byte(Mappings), &mapping), check.IsNil)

	paths := make(map[string]bool)
	for name, raw := range mapping.Mappings.Properties {
		collectFieldPaths(c, name, raw, paths)
	}

	return paths
}

func collectFieldPaths(
	c *check.C, path string, raw json.RawMessage, into map[string]bool,
) {
	into[path] = true

	var property struct {
		Fields     map[string]json.RawMessage `json:"fields"`
		Properties map[string]json.RawMessage `json:"properties"`
	}
	c.Assert(json.Unmarshal(raw, &property), check.IsNil)

	for name, sub := range property.Fields {
		collectFieldPaths(c, path+"."+name, sub, into)
	}

	for name, sub := range property.Properties {
		collectFieldPaths(c, path+"."+name, sub, into)
	}
}
