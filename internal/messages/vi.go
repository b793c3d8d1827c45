package messages

var vi = map[Key]string{
	// ─── Request context ─────────────────────────────────────────────────────
	NoTenant:        "Chưa thiết lập tenant",
	NoUserID:        "Không có UserId",
	NoIdentity:      "Không xác định được người dùng",
	InvalidLang:     "Ngôn ngữ %q không hợp lệ: cần mã gồm hai chữ cái",
	InvalidToken:    "Token không hợp lệ",
	InternalError:   "Lỗi máy chủ, vui lòng liên hệ quản trị viên",
	InvalidBody:     "Nội dung yêu cầu không hợp lệ: %s",
	InvalidPaging:   "%s phải nằm trong khoảng %d đến %d",
	InvalidOlderDay: "Ngày olderthan %q không hợp lệ: cần định dạng YYYY-MM-DD",

	// ─── Notifications ───────────────────────────────────────────────────────
	RecipientRequired:  "Thiếu recipientId",
	InvalidUUID:        "UUID %q không hợp lệ",
	DuplicateID:        "id đã tồn tại",
	CannotChangeID:     "không được đổi id",
	NotificationAbsent: "Không tìm thấy thông báo %s",
	NothingToDelete:    "Không có thông báo nào để xóa",
	TemplateRequired:   "Thiếu templateId",
	InvalidQuery:       "Truy vấn không hợp lệ: %s",
}
