package authorize

func allow(r Role, res Resource, acts ...Action) []Policy {
	out := make([]Policy, 0, len(acts))
	for _, a := range acts {
		out = append(out, Policy{Role: r, Resource: res, Action: a, Effect: EffectAllow})
	}
	return out
}

// DefaultPolicies is the baseline RBAC table for the portal.
func DefaultPolicies() []Policy {
	var ps []Policy
	add := func(p []Policy) { ps = append(ps, p...) }

	// patient
	add(allow(RolePatient, ResourceAppointment, ActionCreate, ActionRead, ActionList))
	add(allow(RolePatient, ResourceInvoice, ActionRead, ActionList, ActionPay, ActionClaim))
	add(allow(RolePatient, ResourceDonation, ActionCreate))
	add(allow(RolePatient, ResourceVault, ActionCreate, ActionRead, ActionList))
	add(allow(RolePatient, ResourceChat, ActionCreate, ActionList))
	add(allow(RolePatient, ResourceMood, ActionCreate, ActionRead))
	add(allow(RolePatient, ResourceAssistant, ActionExecute))
	add(allow(RolePatient, ResourceDoctor, ActionList))
	add(allow(RolePatient, ResourceNotification, ActionManage))
	add(allow(RolePatient, ResourceProfile, ActionManage))

	// doctor
	add(allow(RoleDoctor, ResourceAppointment, ActionRead, ActionList, ActionAdvance, ActionReview))
	add(allow(RoleDoctor, ResourceBloodStock, ActionRead))
	add(allow(RoleDoctor, ResourceBloodRequest, ActionCreate))
	add(allow(RoleDoctor, ResourceVault, ActionRead, ActionList))
	add(allow(RoleDoctor, ResourceChat, ActionCreate, ActionList, ActionReply))
	add(allow(RoleDoctor, ResourceAssistant, ActionRead))
	add(allow(RoleDoctor, ResourceDiagnostics, ActionExecute))
	add(allow(RoleDoctor, ResourceStats, ActionRead))
	add(allow(RoleDoctor, ResourceDoctor, ActionList))
	add(allow(RoleDoctor, ResourceNotification, ActionManage))
	add(allow(RoleDoctor, ResourceProfile, ActionManage))

	// admin
	add(allow(RoleAdmin, ResourceAppointment, ActionRead, ActionList))
	add(allow(RoleAdmin, ResourceBloodStock, ActionManage))
	add(allow(RoleAdmin, ResourceDonation, ActionList, ActionVerify))
	add(allow(RoleAdmin, ResourceCapacity, ActionManage))
	add(allow(RoleAdmin, ResourceStats, ActionRead))
	add(allow(RoleAdmin, ResourcePatient, ActionList))
	add(allow(RoleAdmin, ResourceDoctor, ActionList))
	add(allow(RoleAdmin, ResourceNotification, ActionManage))
	add(allow(RoleAdmin, ResourceProfile, ActionManage))

	return ps
}
