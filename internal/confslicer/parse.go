package confslicer

// Parse tokenises and tree-ifies a vendor config text into a canonical
// ConfigTree. If vendor is empty, DetectVendor is applied first. Any
// syntax error is fatal to the parse: no partial tree is returned.
func Parse(text string, vendor Vendor) (*ConfigTree, error) {
	if vendor == "" {
		detected, err := DetectVendor(text)
		if err != nil {
			return nil, err
		}
		vendor = detected
	}

	switch vendor {
	case VendorJunos:
		return parseJunosConfig(text)
	case VendorCisco, VendorArista:
		return parseIndentConfig(text, vendor)
	default:
		return parseIndentConfig(text, vendor)
	}
}
