package printing

// PrintSelection is the current printer choice of an editing session.
// Current is nil when nothing is selected.
type PrintSelection struct {
	Current *PrinterDescriptor
}

// HasPrinter reports whether a printer is selected
func (s PrintSelection) HasPrinter() bool {
	return s.Current != nil
}

// Resolve computes the drawing surface size for the selected printer's paper.
// It returns ErrNoPaperSelected when no printer is selected.
func Resolve(sel PrintSelection) (PixelSize, error) {
	if sel.Current == nil {
		return PixelSize{}, ErrNoPaperSelected
	}
	return sel.Current.Paper.Pixels(), nil
}
