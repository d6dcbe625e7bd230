package fsqapi

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

const categoryTree = `{
	"response": {
		"categories": [
			{
				"id": "top-food",
				"name": "Food",
				"categories": [
					{
						"id": "child-coffee",
						"name": "Coffee Shop",
						"categories": [
							{"id": "grandchild-espresso", "name": "Espresso Bar", "categories": []}
						]
					}
				]
			},
			{"id": "top-shops", "name": "Shops", "categories": []}
		]
	}
}`

const cafeSearch = `{
	"meta": {"code": 200},
	"response": {
		"venues": [
			{
				"id": "v1",
				"name": "Cafe One",
				"contact": {"formattedPhone": "(312) 555-0100"},
				"location": {"address": "1 Main St", "city": "Chicago", "state": "IL", "postalCode": "60610", "lat": 1.1, "lng": 2.2},
				"categories": [{"id": "grandchild-espresso", "name": "Espresso Bar", "primary": true}],
				"stats": {"checkinsCount": 7}
			},
			{
				"id": "v2",
				"name": "Nowhere",
				"categories": [{"id": "top-shops", "name": "Shops"}]
			},
			{
				"id": "v3",
				"name": "Mystery",
				"location": {"lat": 3.3, "lng": 4.4},
				"categories": [{"id": "unknown", "name": "Unknown"}]
			}
		]
	}
}`

func TestResolveCategoriesMapsDescendantsToTopLevel(t *testing.T) {
	withMockFSQServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/venues/categories" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, categoryTree)
	})

	root, idToName, err := ResolveCategories(context.Background(), testClient(StaticToken("token")))
	if err != nil {
		t.Fatalf("ResolveCategories returned error: %v", err)
	}

	if root["top-food"] != "top-food" {
		t.Fatalf("expected top-level category to map to itself, got %q", root["top-food"])
	}
	if root["child-coffee"] != "top-food" {
		t.Fatalf("expected child category to map to top-level id, got %q", root["child-coffee"])
	}
	if root["grandchild-espresso"] != "top-food" {
		t.Fatalf("expected grandchild category to map to top-level id, got %q", root["grandchild-espresso"])
	}
	if idToName["top-food"] != "Food" || idToName["top-shops"] != "Shops" {
		t.Fatalf("unexpected top-level names: %v", idToName)
	}
}

func TestResolveCategoriesReturnsRemoteError(t *testing.T) {
	withMockFSQServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream failure", http.StatusBadGateway)
	})

	_, _, err := ResolveCategories(context.Background(), testClient(StaticToken("token")))
	if err == nil {
		t.Fatal("expected error when categories fetch fails")
	}
	if !strings.Contains(err.Error(), "502") {
		t.Fatalf("expected HTTP status in error, got: %v", err)
	}
}

func TestBuildKMLBuildsFolderedOutput(t *testing.T) {
	withMockFSQServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v2/venues/categories":
			fmt.Fprint(w, categoryTree)
		case "/v2/venues/search":
			fmt.Fprint(w, cafeSearch)
		default:
			http.NotFound(w, r)
		}
	})

	client := testClient(StaticToken("token"))
	p := NewSearchParams()
	p.SetLocation(1.1, 2.2)
	p.SetQuery("coffee")

	res, err := client.SearchVenues(context.Background(), p)
	if err != nil {
		t.Fatalf("SearchVenues returned error: %v", err)
	}
	root, idToName, err := ResolveCategories(context.Background(), client)
	if err != nil {
		t.Fatalf("ResolveCategories returned error: %v", err)
	}

	var buf bytes.Buffer
	if err := BuildKML(res, root, idToName).WriteIndent(&buf, "", "  "); err != nil {
		t.Fatalf("WriteIndent returned error: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"<name>Food</name>",
		"<name>Undefined</name>",
		"<name>Cafe One</name>",
		"<name>Mystery</name>",
		"1 Main St, Chicago, IL 60610",
		"Checkins: 7",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in KML output, got: %s", want, out)
		}
	}
	if strings.Contains(out, "Nowhere") {
		t.Fatalf("venue without location should be left out, got: %s", out)
	}
	if strings.Index(out, "<name>Food</name>") > strings.Index(out, "<name>Undefined</name>") {
		t.Fatalf("expected folders sorted by name, got: %s", out)
	}
}

func TestBuildKMLWithoutCategoryTreeUsesPrimaryCategory(t *testing.T) {
	res := quietParser().Parse(cafeSearch)

	var buf bytes.Buffer
	if err := BuildKML(res, nil, nil).WriteIndent(&buf, "", "  "); err != nil {
		t.Fatalf("WriteIndent returned error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "<name>Espresso Bar</name>") || !strings.Contains(out, "<name>Unknown</name>") {
		t.Fatalf("expected primary category folders, got: %s", out)
	}
}
