package search

// The field names below are the single source of truth shared by the index
// mapping, the document projector and the query builder. A rename here must
// be mirrored in the Mappings JSON; the schema contract tests assert that
// every reference resolves against the mapping.
const (
	fieldTitle             = "title"
	fieldTitleTokenized    = "title.tokenized"
	fieldAbstract          = "abstract"
	fieldContent           = "content"
	fieldContentTokenized  = "content.tokenized"
	fieldPublishedOn       = "published_on"
	fieldCategories        = "categories"
	fieldAuthorFullNameRaw = "authors.full_name.raw"
)

// Mappings is the JSON data structure that defines the settings and document
// properties of the articles index.
//
// The text fields are indexed twice: once under a linguistic (snowball)
// analyzer for relevance matching and once under a `tokenized` sub-field with
// the simple analyzer, which the spelling suggesters run against. Author full
// names additionally carry an untokenized `raw` sub-field for exact facet
// filtering, while categories are plain keywords. Comments are mapped as
// nested documents so their fields can be queried together as a unit.
var Mappings = `
{
  "settings": {
    "index": {
      "number_of_shards": 1,
      "number_of_replicas": 0
    }
  },
  "mappings": {
    "properties": {
      "title": {
        "type": "text",
        "analyzer": "snowball",
        "fields": {
          "tokenized": {"type": "text", "analyzer": "simple"}
        }
      },
      "abstract": {
        "type": "text",
        "analyzer": "snowball",
        "fields": {
          "tokenized": {"type": "text", "analyzer": "simple"}
        }
      },
      "content": {
        "type": "text",
        "analyzer": "snowball",
        "fields": {
          "tokenized": {"type": "text", "analyzer": "simple"}
        }
      },
      "published_on": {"type": "date"},
      "authors": {
        "properties": {
          "full_name": {
            "type": "text",
            "fields": {
              "raw": {"type": "keyword"}
            }
          }
        }
      },
      "categories": {"type": "keyword"},
      "comments": {
        "type": "nested",
        "properties": {
          "body": {"type": "text", "analyzer": "snowball"},
          "stars": {"type": "short"},
          "pick": {"type": "boolean"},
          "user": {"type": "keyword"},
          "user_location": {"type": "keyword"}
        }
      }
    }
  }
}`
