package pkgmeta

import "context"

// Fake is an in-memory Store for scheduler-level tests that shouldn't
// depend on the GORM reference adapter's own storage.
type Fake struct {
	Packages map[string]Package
	Versions map[string]PackageVersion // keyed by name+"@"+version
}

// NewFake returns an empty Fake.
func NewFake() *Fake {
	return &Fake{
		Packages: make(map[string]Package),
		Versions: make(map[string]PackageVersion),
	}
}

// PutPackage registers a package record.
func (f *Fake) PutPackage(p Package) {
	f.Packages[p.Name] = p
}

// PutVersion registers a package version record.
func (f *Fake) PutVersion(v PackageVersion) {
	f.Versions[v.PackageName+"@"+v.Version] = v
}

func (f *Fake) GetPackage(_ context.Context, name string) (*Package, error) {
	p, ok := f.Packages[name]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (f *Fake) GetPackageVersion(_ context.Context, name, version string) (*PackageVersion, error) {
	v, ok := f.Versions[name+"@"+version]
	if !ok {
		return nil, nil
	}
	return &v, nil
}
