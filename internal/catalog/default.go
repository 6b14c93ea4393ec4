package catalog

import "oc-checklist-service/internal/domain"

// DefaultID identifies the built-in store operation checklist.
const DefaultID = "oc-qsc-standard"

// Default returns the built-in OC checklist. Each call returns a fresh copy.
func Default() domain.Checklist {
	return domain.Checklist{
		ID:    DefaultID,
		Title: "Kiểm tra vận hành cửa hàng (OC)",
		Categories: []domain.ChecklistCategory{
			{
				ID:    "Q",
				Title: "Chất lượng (Quality)",
				Sections: []domain.ChecklistSection{
					{ID: "Q.1", Title: "Nguyên liệu", Items: []domain.ChecklistItem{
						{ID: "Q1.1", Title: "Nguyên liệu còn hạn sử dụng, có nhãn ngày mở", Weight: 5, Critical: true},
						{ID: "Q1.2", Title: "Tủ mát đạt 0-5°C, tủ đông dưới -18°C", Weight: 5, Critical: true},
						{ID: "Q1.3", Title: "Nguyên liệu sắp xếp theo FIFO", Weight: 3},
					}},
					{ID: "Q.2", Title: "Thành phẩm", Items: []domain.ChecklistItem{
						{ID: "Q2.1", Title: "Món ăn đúng định lượng công thức", Weight: 4},
						{ID: "Q2.2", Title: "Nhiệt độ phục vụ đạt chuẩn", Weight: 3},
						{ID: "Q2.3", Title: "Trình bày đúng hình mẫu", Weight: 2},
					}},
				},
			},
			{
				ID:    "S",
				Title: "Dịch vụ (Service)",
				Sections: []domain.ChecklistSection{
					{ID: "S.1", Title: "Đón tiếp", Items: []domain.ChecklistItem{
						{ID: "S1.1", Title: "Chào khách trong vòng 10 giây", Weight: 3},
						{ID: "S1.2", Title: "Nhân viên mặc đồng phục, đeo bảng tên", Weight: 2},
					}},
					{ID: "S.2", Title: "Phục vụ", Items: []domain.ChecklistItem{
						{ID: "S2.1", Title: "Thời gian ra món không quá 15 phút", Weight: 4},
						{ID: "S2.2", Title: "Xác nhận lại order với khách", Weight: 2},
						{ID: "S2.3", Title: "Thanh toán chính xác, xuất hóa đơn", Weight: 3, Critical: true},
					}},
				},
			},
			{
				ID:    "C",
				Title: "Vệ sinh (Cleanliness)",
				Sections: []domain.ChecklistSection{
					{ID: "C.1", Title: "Khu vực khách", Items: []domain.ChecklistItem{
						{ID: "C1.1", Title: "Sàn, bàn ghế sạch, khô", Weight: 3},
						{ID: "C1.2", Title: "Nhà vệ sinh sạch, đủ giấy và xà phòng", Weight: 3},
					}},
					{ID: "C.2", Title: "Khu vực bếp", Items: []domain.ChecklistItem{
						{ID: "C2.1", Title: "Dụng cụ sống chín tách biệt", Weight: 5, Critical: true},
						{ID: "C2.2", Title: "Thùng rác có nắp, đổ đúng giờ", Weight: 2},
						{ID: "C2.3", Title: "Không có dấu hiệu côn trùng", Weight: 5, Critical: true},
					}},
				},
			},
			{
				ID:    "M",
				Title: "Thiết bị & An toàn (Maintenance)",
				Sections: []domain.ChecklistSection{
					{ID: "M.1", Title: "Thiết bị", Items: []domain.ChecklistItem{
						{ID: "M1.1", Title: "Thiết bị bếp hoạt động bình thường", Weight: 3},
						{ID: "M1.2", Title: "Lịch bảo trì được cập nhật", Weight: 2},
					}},
					{ID: "M.2", Title: "An toàn", Items: []domain.ChecklistItem{
						{ID: "M2.1", Title: "Bình chữa cháy còn hạn kiểm định", Weight: 4, Critical: true},
						{ID: "M2.2", Title: "Lối thoát hiểm thông thoáng", Weight: 4, Critical: true},
					}},
				},
			},
		},
	}
}
