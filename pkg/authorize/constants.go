package authorize

import "github.com/Alijeyrad/medtrack_backend/pkg/constants"

type Action string
type Resource string
type Role string

type PolicyEffect string

const (
	EffectAllow PolicyEffect = "allow"
	EffectDeny  PolicyEffect = "deny"
)

const (
	RolePatient Role = constants.RolePatient
	RoleDoctor  Role = constants.RoleDoctor
	RoleAdmin   Role = constants.RoleAdmin
)

var KnownRoles = map[Role]struct{}{
	RolePatient: {}, RoleDoctor: {}, RoleAdmin: {},
}

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionList   Action = "list"
	ActionUpdate Action = "update"

	// domain actions
	ActionAdvance Action = "advance"
	ActionReview  Action = "review"
	ActionPay     Action = "pay"
	ActionClaim   Action = "claim"
	ActionVerify  Action = "verify"
	ActionReply   Action = "reply"
	ActionExecute Action = "execute"

	// manage grants every action on the resource
	ActionManage Action = "manage"
)

var KnownActions = map[Action]struct{}{
	ActionCreate: {}, ActionRead: {}, ActionList: {}, ActionUpdate: {},
	ActionAdvance: {}, ActionReview: {}, ActionPay: {}, ActionClaim: {},
	ActionVerify: {}, ActionReply: {}, ActionExecute: {}, ActionManage: {},
}

const (
	ResourceAppointment  Resource = "appointment"
	ResourceInvoice      Resource = "invoice"
	ResourceBloodStock   Resource = "blood_stock"
	ResourceDonation     Resource = "donation"
	ResourceBloodRequest Resource = "blood_request"
	ResourceCapacity     Resource = "capacity"
	ResourceVault        Resource = "vault"
	ResourceChat         Resource = "chat"
	ResourceMood         Resource = "mood"
	ResourceAssistant    Resource = "assistant"
	ResourceDiagnostics  Resource = "diagnostics"
	ResourceStats        Resource = "stats"
	ResourceNotification Resource = "notification"
	ResourcePatient      Resource = "patient"
	ResourceDoctor       Resource = "doctor"
	ResourceProfile      Resource = "profile"
)

var KnownResources = map[Resource]struct{}{
	ResourceAppointment: {}, ResourceInvoice: {}, ResourceBloodStock: {},
	ResourceDonation: {}, ResourceBloodRequest: {}, ResourceCapacity: {},
	ResourceVault: {}, ResourceChat: {}, ResourceMood: {}, ResourceAssistant: {},
	ResourceDiagnostics: {}, ResourceStats: {},
	ResourceNotification: {}, ResourcePatient: {}, ResourceDoctor: {},
	ResourceProfile: {},
}

// Policy is one p line: role, resource, action, effect.
type Policy struct {
	Role     Role
	Resource Resource
	Action   Action
	Effect   PolicyEffect
}

// modelText is the RBAC model. Subjects are roles carried in the access
// token; g allows one role to inherit another.
const modelText = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act, eft

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow)) && !some(where (p.eft == deny))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && (p.act == "manage" || r.act == p.act)
`
