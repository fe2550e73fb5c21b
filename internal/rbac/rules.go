package rbac

// Default policy. Students own the test-taking flow; admins additionally
// manage content.
var RolePermissions = map[string][]string{
	"student": {
		"test:view",
		"result:save",
		"result:view-own",
		"bookmark:manage",
		"profile:manage",
	},
	"admin": {
		"*", // everything, including test:upload and event:replay
	},
}
