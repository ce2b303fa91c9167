package listing

// Record is one scraped job listing.
type Record struct {
	Title   string `json:"title" yaml:"title"`
	Company string `json:"company" yaml:"company"`
	Skills  string `json:"skills" yaml:"skills"`
	// Cluster stays nil until the clusterer has labeled the dataset.
	Cluster *int `json:"cluster,omitempty" yaml:"cluster,omitempty"`
}

// Labeled reports whether the clusterer assigned this record a cluster.
func (r Record) Labeled() bool {
	return r.Cluster != nil
}

// Dataset keeps records in the order their cards appeared on the page.
// Duplicates are kept.
type Dataset []Record

// Titles returns every record's title in dataset order.
func (d Dataset) Titles() []string {
	out := make([]string, len(d))
	for i, r := range d {
		out[i] = r.Title
	}
	return out
}

// SkillTexts returns every record's skills text in dataset order.
func (d Dataset) SkillTexts() []string {
	out := make([]string, len(d))
	for i, r := range d {
		out[i] = r.Skills
	}
	return out
}

// Clone returns a deep copy so later stages never alias an earlier stage's slice.
func (d Dataset) Clone() Dataset {
	if d == nil {
		return nil
	}
	out := make(Dataset, len(d))
	for i, r := range d {
		out[i] = r
		if r.Cluster != nil {
			c := *r.Cluster
			out[i].Cluster = &c
		}
	}
	return out
}

// Head returns at most n leading records.
func (d Dataset) Head(n int) Dataset {
	if n < 0 {
		n = 0
	}
	if n > len(d) {
		n = len(d)
	}
	return d[:n]
}

// ClusterOf is a small helper for building labeled records in tests and loaders.
func ClusterOf(label int) *int {
	return &label
}
