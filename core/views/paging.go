/*
SPDX-License-Identifier: Apache-2.0

Copyright 2024 The Tabula Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package views

import "math"

const (
	maxPageLinks  = 7
	minRowHeight  = 18
	defaultBuffer = 5
)

// Page is one page of a paginated row set. Start and End are 1-based and
// inclusive, as shown to the user; both are 0 when there are no rows.
type Page struct {
	Page       int
	Size       int
	TotalPages int
	TotalRows  int
	Start      int
	End        int
	// Numbers are the page links to offer, centred on Page.
	Numbers []int
}

// Paginate clamps page into range and computes its bounds. A size of 0
// puts every row on one page.
func Paginate(total, page, size int) Page {
	total = max(total, 0)
	if size <= 0 {
		size = max(total, 1)
	}
	pages := max(1, (total+size-1)/size)
	page = min(max(page, 1), pages)

	p := Page{Page: page, Size: size, TotalPages: pages, TotalRows: total}
	if total > 0 {
		p.Start = (page-1)*size + 1
		p.End = min(page*size, total)
	}

	first := max(1, page-maxPageLinks/2)
	last := min(pages, first+maxPageLinks-1)
	if last-first+1 < maxPageLinks {
		first = max(1, last-maxPageLinks+1)
	}
	for n := first; n <= last; n++ {
		p.Numbers = append(p.Numbers, n)
	}
	return p
}

// Bounds returns the half-open 0-based range of the page's rows.
func (p Page) Bounds() (from, to int) {
	if p.Start == 0 {
		return 0, 0
	}
	return p.Start - 1, p.End
}

func (p Page) HasPrev() bool { return p.Page > 1 }
func (p Page) HasNext() bool { return p.Page < p.TotalPages }

// ScaledRowHeight is the on-screen row height at zoom.
func ScaledRowHeight(rowHeight int, zoom float64) int {
	if zoom <= 0 {
		zoom = 1
	}
	return max(minRowHeight, int(math.Round(float64(rowHeight)*zoom)))
}

// RowWindow is the slice of rows a virtualized body renders.
type RowWindow struct {
	// First and Last bound the rendered rows, Last exclusive.
	First, Last int
	RowHeight   int
	// Offset is the pixel position of row First.
	Offset      int
	TotalHeight int
}

// Window computes which of total rows intersect a viewport of the given
// height scrolled to scrollTop, plus overscan rows on each side. A negative
// overscan uses a small default.
func Window(total, scrollTop, viewport, rowHeight int, zoom float64, overscan int) RowWindow {
	h := ScaledRowHeight(rowHeight, zoom)
	if overscan < 0 {
		overscan = defaultBuffer
	}
	w := RowWindow{RowHeight: h, TotalHeight: max(total, 0) * h}
	if total <= 0 {
		return w
	}
	first := max(scrollTop, 0) / h
	last := (max(scrollTop, 0) + max(viewport, 0) + h - 1) / h
	w.First = min(max(first-overscan, 0), total)
	w.Last = min(last+overscan, total)
	w.Offset = w.First * h
	return w
}
