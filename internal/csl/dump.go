package csl

import (
	"fmt"
	"io"
)

// Dump writes every package, plane and table entry of the catalog to w.
func (c *Catalog) Dump(w io.Writer) error {
	for n, pkg := range c.packages {
		if _, err := fmt.Fprintf(w, "Package %d %s path = %s\n", n, pkg.Name, pkg.Path); err != nil {
			return err
		}
		for i, p := range pkg.Planes {
			fmt.Fprintf(w, "    Plane %d = %s %s [%s/%s/%s]\n", i, p.Model.Kind(), p.Model.AssetPath(), p.ICAO, p.Airline, p.Livery)
			if m, ok := p.Model.(*ModernObject); ok {
				for _, att := range m.Attachments {
					fmt.Fprintf(w, "        %s animate=%t %s\n", att.Role, att.Animate, att.Path)
				}
			}
		}
		for _, pass := range indexedPasses {
			fmt.Fprintf(w, "    Table %d\n", pass)
			for _, key := range pkg.Keys(pass) {
				idx, _ := pkg.PlaneIndex(pass, key)
				fmt.Fprintf(w, "        %s -> %d\n", key, idx)
			}
		}
	}
	return nil
}
