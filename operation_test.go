package mockrobot

import (
	"testing"

	"github.com/ValerySidorin/mockrobot/internal/protocol"
	"github.com/stretchr/testify/require"
)

func TestBuildQueue(t *testing.T) {
	tests := []struct {
		name    string
		op      Operation
		names   [2]ParamName
		values  [2]string
		want    []Entry
		wantErr string
	}{
		{
			name:   "pick",
			op:     OperationPick,
			names:  [2]ParamName{ParamSource, ParamNone},
			values: [2]string{"3", ""},
			want:   []Entry{{Command: protocol.PickCommand, Location: 3}},
		},
		{
			name:   "place",
			op:     OperationPlace,
			names:  [2]ParamName{ParamDestination, ParamNone},
			values: [2]string{"345", ""},
			want:   []Entry{{Command: protocol.PlaceCommand, Location: 345}},
		},
		{
			name:   "transfer",
			op:     OperationTransfer,
			names:  [2]ParamName{ParamSource, ParamDestination},
			values: [2]string{"1", "2"},
			want: []Entry{
				{Command: protocol.PickCommand, Location: 1},
				{Command: protocol.PlaceCommand, Location: 2},
			},
		},
		{
			name:   "transfer located by role",
			op:     OperationTransfer,
			names:  [2]ParamName{ParamDestination, ParamSource},
			values: [2]string{"80", "12"},
			want: []Entry{
				{Command: protocol.PickCommand, Location: 12},
				{Command: protocol.PlaceCommand, Location: 80},
			},
		},
		{
			name:    "location outside table",
			op:      OperationPick,
			names:   [2]ParamName{ParamSource, ParamNone},
			values:  [2]string{"4", ""},
			wantErr: "<INPUT ERROR> Input valid location values",
		},
		{
			name:    "leading zero is not a table value",
			op:      OperationPick,
			names:   [2]ParamName{ParamSource, ParamNone},
			values:  [2]string{"01", ""},
			wantErr: "<INPUT ERROR> Input valid location values",
		},
		{
			name:    "unknown parameter name",
			op:      OperationPick,
			names:   [2]ParamName{"Somewhere", ParamNone},
			values:  [2]string{"1", ""},
			wantErr: "<INPUT ERROR> Input valid parameter names",
		},
		{
			name:    "pick without value",
			op:      OperationPick,
			names:   [2]ParamName{ParamSource, ParamNone},
			values:  [2]string{"", ""},
			wantErr: "<INPUT ERROR> Input location value in first row",
		},
		{
			name:    "pick with second row value",
			op:      OperationPick,
			names:   [2]ParamName{ParamSource, ParamNone},
			values:  [2]string{"1", "2"},
			wantErr: "<INPUT ERROR> Delete entries in second row",
		},
		{
			name:    "place with second row name",
			op:      OperationPlace,
			names:   [2]ParamName{ParamDestination, ParamSource},
			values:  [2]string{"1", ""},
			wantErr: "<INPUT ERROR> Delete entries in second row",
		},
		{
			name:    "pick from destination",
			op:      OperationPick,
			names:   [2]ParamName{ParamDestination, ParamNone},
			values:  [2]string{"1", ""},
			wantErr: "<INPUT ERROR> Select Source Location for Picking",
		},
		{
			name:    "place at source",
			op:      OperationPlace,
			names:   [2]ParamName{ParamSource, ParamNone},
			values:  [2]string{"1", ""},
			wantErr: "<INPUT ERROR> Select Destination Location for Placing",
		},
		{
			name:    "transfer with none",
			op:      OperationTransfer,
			names:   [2]ParamName{ParamSource, ParamNone},
			values:  [2]string{"1", "2"},
			wantErr: "<INPUT ERROR> Select Source and Destination for Transfer",
		},
		{
			name:    "transfer with duplicate names",
			op:      OperationTransfer,
			names:   [2]ParamName{ParamSource, ParamSource},
			values:  [2]string{"1", "2"},
			wantErr: "<INPUT ERROR> Select Source and Destination for Transfer",
		},
		{
			name:    "transfer same location",
			op:      OperationTransfer,
			names:   [2]ParamName{ParamSource, ParamDestination},
			values:  [2]string{"6", "6"},
			wantErr: "<INPUT ERROR> Cannot Transfer same location",
		},
		{
			name:    "transfer missing value",
			op:      OperationTransfer,
			names:   [2]ParamName{ParamSource, ParamDestination},
			values:  [2]string{"6", ""},
			wantErr: "<INPUT ERROR> Input all location values for Transfer",
		},
		{
			name:    "unknown operation",
			op:      "Spin",
			names:   [2]ParamName{ParamSource, ParamNone},
			values:  [2]string{"1", ""},
			wantErr: "<INPUT ERROR> Input valid operation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := BuildQueue(tt.op, tt.names, tt.values, DefaultLocations)
			if tt.wantErr != "" {
				require.Error(t, err)
				require.Equal(t, ClassInput, ClassOf(err))
				require.Equal(t, tt.wantErr, err.Error())
				require.Nil(t, entries)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.want, entries)
		})
	}
}

func TestBuildQueueCustomLocations(t *testing.T) {
	table := NewLocationTable("7")

	entries, err := BuildQueue(OperationPick, [2]ParamName{ParamSource, ParamNone}, [2]string{"7", ""}, table)
	require.NoError(t, err)
	require.Equal(t, []Entry{{Command: protocol.PickCommand, Location: 7}}, entries)

	_, err = BuildQueue(OperationPick, [2]ParamName{ParamSource, ParamNone}, [2]string{"1", ""}, table)
	require.Equal(t, ClassInput, ClassOf(err))
}

func TestOperationInitiated(t *testing.T) {
	require.Equal(t, "Picking process initiated", OperationPick.Initiated())
	require.Equal(t, "Placing process initiated", OperationPlace.Initiated())
	require.Equal(t, "Transfer process initiated", OperationTransfer.Initiated())
}
