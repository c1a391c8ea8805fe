package graph

var nodeColors = map[NodeType]string{
	NodeTypeService:  "#3b82f6",
	NodeTypeDatabase: "#10b981",
	NodeTypeCache:    "#f59e0b",
	NodeTypeGateway:  "#8b5cf6",
	NodeTypeFrontend: "#ec4899",
	NodeTypeQueue:    "#06b6d4",
	NodeTypeBackend:  "#6366f1",
	NodeTypeWorker:   "#f97316",
	NodeTypeStorage:  "#64748b",
}

var nodeIcons = map[NodeType]string{
	NodeTypeService:  "server",
	NodeTypeDatabase: "database",
	NodeTypeCache:    "zap",
	NodeTypeGateway:  "shield-check",
	NodeTypeFrontend: "layout",
	NodeTypeQueue:    "message-square",
	NodeTypeBackend:  "cpu",
	NodeTypeWorker:   "activity",
	NodeTypeStorage:  "hard-drive",
}

// Color returns the display color of the category as a hex string.
// Unknown categories use the service color.
func (t NodeType) Color() string {
	if c, ok := nodeColors[t]; ok {
		return c
	}
	return nodeColors[NodeTypeService]
}

// Icon returns the icon name of the category.
// Unknown categories use the service icon.
func (t NodeType) Icon() string {
	if i, ok := nodeIcons[t]; ok {
		return i
	}
	return nodeIcons[NodeTypeService]
}
