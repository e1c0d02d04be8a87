package platform

// Shell view and naming flags passed to IFolderView2 and IShellFolder.
const (
	// svgioBackground counts the items in the folder without selection state.
	svgioBackground = 0x00000000

	shgdnInFolder   = 0x0001
	shgdnForParsing = 0x8000

	// itemNameFlags yields the parse name relative to the desktop folder,
	// the form IShellFolder::ParseDisplayName accepts back.
	itemNameFlags = shgdnInFolder | shgdnForParsing
)
