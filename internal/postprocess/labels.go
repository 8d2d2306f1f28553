package postprocess

// Labels are the docling layout classes in model output order
var Labels = []string{
	"Caption",
	"Footnote",
	"Formula",
	"List-item",
	"Page-footer",
	"Page-header",
	"Picture",
	"Section-header",
	"Table",
	"Text",
	"Title",
	"Document Index",
	"Code",
	"Checkbox-Selected",
	"Checkbox-Unselected",
	"Form",
	"Key-Value Region",
}

// Label returns the class name for index, or "" when it is out of range
func Label(index int) string {
	if index < 0 || index >= len(Labels) {
		return ""
	}
	return Labels[index]
}
