package catalog

// Shape resolves v's global extent along each of its own Dims: a fixed
// dimension's extent is whatever the catalog observed for it; an
// unlimited dimension's extent is the sum of every contributing file's
// local extent along it, in v.Files order (spec.md §4.2's "a
// time-series variable's global length is the sum of its files'
// local lengths along the unlimited dimension").
func (c *Catalog) Shape(v Variable) []int {
	shape := make([]int, len(v.Dims))
	for i, d := range v.Dims {
		dim := c.Dimensions[d]
		if !dim.Unlimited {
			shape[i] = dim.Size
			continue
		}
		total := 0
		for _, path := range v.Files {
			total += v.FileShapes[path][i]
		}
		shape[i] = total
	}
	return shape
}
