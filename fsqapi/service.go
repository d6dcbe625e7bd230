package fsqapi

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/twpayne/go-kml"
)

const undefinedFolder = "Undefined"

// Root maps any category id to the id of its top-level ancestor.
type Root map[string]string

// TopLevel maps top-level category ids to their names.
type TopLevel map[string]string

func ResolveCategories(ctx context.Context, client *Client) (Root, TopLevel, error) {

	cats, err := client.Categories(ctx)

	if err != nil {
		return nil, nil, err
	}

	root, idToName := CategoryIndex(cats)
	return root, idToName, nil
}

// CategoryIndex flattens a category tree.
func CategoryIndex(cats []GlobalCategory) (Root, TopLevel) {
	root := make(Root)
	idToName := make(TopLevel)

	var walk func(c *GlobalCategory, top string)

	walk = func(c *GlobalCategory, top string) {
		for i := range c.Children {
			inner := &c.Children[i]
			root[inner.Id] = top
			walk(inner, top)
		}
	}

	for i := range cats {
		c := &cats[i]
		idToName[c.Id] = c.Name
		root[c.Id] = c.Id
		walk(c, c.Id)
	}

	return root, idToName
}

// BuildKML renders the businesses of a search as placemarks, one folder per
// top-level category. With a nil root the primary category name is used as
// the folder. Businesses without a location are left out.
func BuildKML(result *SearchResult, root Root, idToName TopLevel) *kml.CompoundElement {

	folders := make(map[string]*kml.CompoundElement)

	k := kml.KML()
	d := kml.Document()

	for _, item := range result.Businesses() {
		if item.Location == nil {
			continue
		}
		place := kml.Placemark(
			kml.Name(item.Name),
			kml.Description(placeDescription(&item)),
			kml.Point(
				kml.Coordinates(kml.Coordinate{Lon: item.Location.Lng, Lat: item.Location.Lat}),
			),
		)

		names := folderNames(&item, root, idToName)
		for _, name := range names {
			folder := folders[name]
			if folder == nil {
				folder = kml.Folder(kml.Name(name))
				folders[name] = folder
			}
			folder.Add(place)
		}
	}

	names := make([]string, 0, len(folders))
	for name := range folders {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		d.Add(folders[name])
	}

	k.Add(d)
	return k
}

func folderNames(b *Business, root Root, idToName TopLevel) []string {
	if root == nil {
		if c := b.PrimaryCategory(); c != nil && c.Name != "" {
			return []string{c.Name}
		}
		return []string{undefinedFolder}
	}

	seen := make(map[string]struct{})
	var names []string
	for _, c := range b.Categories {
		topLevelName := idToName[root[c.Id]]
		if topLevelName == "" {
			topLevelName = undefinedFolder
		}
		if _, ok := seen[topLevelName]; ok {
			continue
		}
		seen[topLevelName] = struct{}{}
		names = append(names, topLevelName)
	}
	if len(names) == 0 {
		names = append(names, undefinedFolder)
	}
	return names
}

func placeDescription(b *Business) string {
	lines := make([]string, 0, 4)
	if addr := b.FormattedAddress(); addr != "" {
		lines = append(lines, addr)
	}
	if b.Contact != nil && b.Contact.FormattedPhone != "" {
		lines = append(lines, "Phone: "+b.Contact.FormattedPhone)
	}
	if b.Url != "" {
		lines = append(lines, b.Url)
	}
	if b.Stats != nil {
		lines = append(lines, fmt.Sprintf("Checkins: %d", b.Stats.CheckinsCount))
	}
	return strings.Join(lines, "\n")
}
