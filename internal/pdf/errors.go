package pdf

import "fmt"

// LayoutError is a failure to produce the element tree of a page. It is fatal for the scan.
type LayoutError struct {
	Path string
	Page int
	Op   string
	Err  error
}

func (e *LayoutError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("layout %s failed on page %d of %s: %v", e.Op, e.Page, e.Path, e.Err)
	}
	return fmt.Sprintf("layout %s failed for %s: %v", e.Op, e.Path, e.Err)
}

func (e *LayoutError) Unwrap() error {
	return e.Err
}
