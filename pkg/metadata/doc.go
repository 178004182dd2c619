// Package metadata builds settings schemas from plain settings documents. A
// Catalog holds form metadata (labels, widget types, constraints and
// conditions) keyed by dotted path, loaded from nested JSON or YAML documents
// such as:
//
//	{
//	  "settings": {
//	    "label": "Settings",
//	    "children": {
//	      "volume": {"type": "number", "min": 0, "max": 100}
//	    }
//	  }
//	}
//
// Build walks a settings document, infers metadata for every value and lets
// catalog entries override the inferred attributes one by one.
package metadata
