package pages

const (
	PAGE_L1_ENTRY       string = "page_entry"
	PAGE_L1_INTERACTION string = "page_interaction"
)

var Entry = struct {
	MENU     string
	LOGIN    string
	FETCH    string
	SETTINGS string
	HELP     string
}{
	MENU:     "page_menu",
	LOGIN:    "page_login",
	FETCH:    "page_fetch",
	SETTINGS: "page_settings",
	HELP:     "page_help",
}

var Interaction = struct {
	BACKUPS string
	PICK    string
	ENTROPY string
	INBOX   string
}{
	BACKUPS: "page_backups",
	PICK:    "page_pick",
	ENTROPY: "page_entropy",
	INBOX:   "page_inbox",
}

type Tip struct {
	ShortCut    string
	Label       string
	Description string
}

// map[PAGE_L1_NAME][PAGE_L2_NAME][]*Tip{}
var TipsMap = map[string]map[string][]*Tip{
	PAGE_L1_ENTRY: {
		Entry.LOGIN: []*Tip{
			{
				ShortCut: "Alt+C",
				Label:    "Cancel",
			},
			{
				ShortCut: "Alt+O",
				Label:    "Log In",
			},
		},
		Entry.FETCH: []*Tip{
			{
				ShortCut: "Alt+C",
				Label:    "Cancel",
			},
			{
				ShortCut: "Alt+F",
				Label:    "Fetch",
			},
		},
		Entry.SETTINGS: []*Tip{
			{
				ShortCut: "Alt+B",
				Label:    "Go Back",
			},
		},
	},
	PAGE_L1_INTERACTION: {
		Interaction.BACKUPS: []*Tip{
			{
				ShortCut: "Alt+N",
				Label:    "New Backup",
			},
			{
				ShortCut: "Alt+D",
				Label:    "Download",
			},
			{
				ShortCut: "Alt+S",
				Label:    "Share Tag",
			},
			{
				ShortCut: "Alt+R",
				Label:    "Refresh",
			},
			{
				ShortCut: "Alt+X",
				Label:    "Delete",
			},
			{
				ShortCut: "Alt+I",
				Label:    "Inbox",
			},
			{
				ShortCut: "Alt+L",
				Label:    "Logout",
			},
		},
		Interaction.INBOX: []*Tip{
			{
				ShortCut: "Alt+F",
				Label:    "Fetch",
			},
			{
				ShortCut: "Alt+R",
				Label:    "Refresh",
			},
			{
				ShortCut: "Alt+X",
				Label:    "Delete",
			},
			{
				ShortCut: "Alt+B",
				Label:    "Go Back",
			},
		},
		Interaction.PICK: []*Tip{
			{
				ShortCut: "",
				Label:    "Start Typing to Search",
			},
			{
				ShortCut: "",
				Label:    "Use Arrow Keys to Navigate Tree",
			},
			{
				ShortCut: "Alt+B",
				Label:    "Go Back",
			},
			{
				ShortCut: "Alt+H",
				Label:    "Toggle Hidden Files",
			},
			{
				ShortCut: "Esc",
				Label:    "Collapse Tree",
			},
		},
		Interaction.ENTROPY: []*Tip{
			{
				ShortCut: "",
				Label:    "Move the Mouse Inside the Box",
			},
			{
				ShortCut: "Alt+U",
				Label:    "Seal and Upload",
			},
			{
				ShortCut: "Alt+B",
				Label:    "Cancel",
			},
		},
	},
}
